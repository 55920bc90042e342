package domain

import (
	"encoding/json"
)

// PlaceholderTitle is substituted when a stored metadata blob fails to decode.
// A malformed item degrades to a placeholder instead of breaking the list it
// appears in.
const PlaceholderTitle = "Error"

// EncodePostMetadata serializes post metadata into the single JSON text value
// stored in the contract's metadataURI field.
func EncodePostMetadata(m PostMetadata) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodePostMetadata decodes a stored blob. A parse failure yields the
// placeholder form and degraded=true, never an error.
func DecodePostMetadata(blob string) (PostMetadata, bool) {
	var m PostMetadata
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return PostMetadata{Title: PlaceholderTitle, Kind: PostKindText}, true
	}
	if m.Kind == "" {
		m.Kind = PostKindText
	}
	return m, false
}

// EncodeEventMetadata serializes event metadata for the metadataURI field
func EncodeEventMetadata(m EventMetadata) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeEventMetadata decodes a stored blob, degrading to the placeholder
// form on parse failure.
func DecodeEventMetadata(blob string) (EventMetadata, bool) {
	var m EventMetadata
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return EventMetadata{Title: PlaceholderTitle}, true
	}
	return m, false
}

// EncodeProfileMetadata serializes profile metadata for the metadataURI field
func EncodeProfileMetadata(m ProfileMetadata) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeProfileMetadata decodes a stored blob, degrading to the placeholder
// form on parse failure.
func DecodeProfileMetadata(blob string) (ProfileMetadata, bool) {
	var m ProfileMetadata
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return ProfileMetadata{Name: PlaceholderTitle}, true
	}
	return m, false
}
