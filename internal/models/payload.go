package models

// PayloadMetaData is the metadata.json carried inside each scanned envelope.
type PayloadMetaData struct {
	Jurisdiction                     string          `json:"jurisdiction"`
	OriginatingDocumentControlNumber string          `json:"originating_document_control_number"`
	ScannableItems                   []ScannableItem `json:"scannable_items"`
}

// ScannableItem is one scanned page with its base64 encoded OCR text.
type ScannableItem struct {
	DocumentControlNumber string `json:"document_control_number"`
	DocumentType          string `json:"document_type"`
	OcrData               string `json:"ocr_data"`
}

// OcrPayload is the decoded OCR text of a scannable item.
type OcrPayload struct {
	MetadataFile []RawField `json:"Metadata_file"`
}

// RawField is one OCR field/value pair.
type RawField struct {
	Name  string `json:"metadata_field_name"`
	Value string `json:"metadata_field_value"`
}
