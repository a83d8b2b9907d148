package api

import (
	"fmt"
	"strings"
)

const openAPITemplate = `%s/images:
  post:
    tags:
      - %s
    summary: Upload image or PDF
    description: Uploads an image (exact target resolution) or a PDF that is rasterized into one
    requestBody:
      required: true
      content:
        multipart/form-data:
          schema:
            type: object
            properties:
              image:
                type: string
                format: binary
                description: The image or PDF file to store
              filename:
                type: string
                description: Optional display name embedded in the stored filename
            required:
              - image
    responses:
      '200':
        description: Stored item
      '400':
        description: Rejected upload (file_too_large, unsupported_format, invalid_dimensions, conversion_failed)
      '500':
        description: Storage or ledger failure
%s/images/{sequence}:
  get:
    tags:
      - %s
    summary: Serve canonical image
    parameters:
      - name: sequence
        in: path
        required: true
        schema:
          type: integer
    responses:
      '200':
        description: PNG bytes
        content:
          image/png: {}
      '404':
        description: Unknown sequence or missing backing file
%s/images/{sequence}/document:
  get:
    tags:
      - %s
    summary: Serve original PDF document
    parameters:
      - name: sequence
        in: path
        required: true
        schema:
          type: integer
    responses:
      '200':
        description: PDF bytes
        content:
          application/pdf: {}
      '404':
        description: Unknown sequence or no document for this item
%s/images/delete:
  post:
    tags:
      - %s
    summary: Delete one image by sequence
    requestBody:
      required: true
      content:
        application/json:
          schema:
            type: object
            properties:
              sequence:
                type: integer
            required:
              - sequence
    responses:
      '200':
        description: Deleted
      '404':
        description: Image not found
%s/images/clear_all:
  post:
    tags:
      - %s
    summary: Delete every stored image and restart numbering at 1
    responses:
      '200':
        description: Count of removed files
%s/status:
  get:
    tags:
      - %s
    summary: Item count, capacity and per-item projections
    responses:
      '200':
        description: Status document
%s/history:
  get:
    tags:
      - %s
    summary: Recent store/delete events
    parameters:
      - name: limit
        in: query
        schema:
          type: integer
    responses:
      '200':
        description: Recorded events, newest first
      '503':
        description: History recording disabled
`

func GetOpenAPISpec(pathPrefix, tag string) string {
	prefix := strings.TrimSuffix(pathPrefix, "/")
	return fmt.Sprintf(openAPITemplate,
		prefix, tag,
		prefix, tag,
		prefix, tag,
		prefix, tag,
		prefix, tag,
		prefix, tag,
		prefix, tag,
	)
}
