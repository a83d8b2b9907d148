package api

import (
	"fmt"
	"io"
)

func readAll(r io.Reader, limit int64) ([]byte, error) {
	data, readErr := io.ReadAll(io.LimitReader(r, limit+1))
	if readErr != nil {
		return nil, readErr
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("payload exceeds %d bytes", limit)
	}
	return data, nil
}
