package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Limits applied while parsing untrusted files.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
	MaxMetadataSize  = 10 * 1024 * 1024
)

// ValidationLevel selects how much of an incoming file gets checked
// before its tensors are handed to the caller.
type ValidationLevel int

const (
	// ValidationStrict checks names, counts and the full offset layout.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and counts but not offsets.
	ValidationNormal
	// ValidationNone disables checks. Only for input you produced yourself.
	ValidationNone
)

// checkTensorCount enforces the directory size limit shared by the
// header and offset validators.
func checkTensorCount(n int) error {
	if n > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", n, MaxTensorCount),
		}
	}
	return nil
}

// ValidateTensorOffsets rejects directories whose tensor regions are
// negative, overlap each other, or reach past the end of the data
// section. A crafted directory must not be able to alias one tensor's
// bytes into another.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if err := checkTensorCount(len(tensors)); err != nil {
		return err
	}

	byOffset := append([]TensorMeta(nil), tensors...)
	sort.Slice(byOffset, func(i, j int) bool {
		return byOffset[i].Offset < byOffset[j].Offset
	})

	prevEnd := int64(0)
	prevName := ""
	for _, meta := range byOffset {
		if meta.Offset < 0 || meta.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  meta.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", meta.Offset, meta.Size),
			}
		}
		end := meta.Offset + meta.Size
		if end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  meta.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", meta.Offset, meta.Size, dataSize),
			}
		}
		if meta.Offset < prevEnd {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prevName,
				Tensor2: meta.Name,
				Details: fmt.Sprintf("region ending at %d overlaps region starting at %d",
					prevEnd, meta.Offset),
			}
		}
		prevEnd, prevName = end, meta.Name
	}

	return nil
}

// forbiddenNameParts are substrings that could escape the directory
// namespace when a tensor name is used as a key or path component.
var forbiddenNameParts = []struct{ substr, reason string }{
	{"..", "contains '..'"},
	{"/", "contains path separator"},
	{"\\", "contains path separator"},
	{"\x00", "contains null byte"},
}

// ValidateTensorName rejects oversized names and names containing any
// of the forbidden substrings.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}

	for _, bad := range forbiddenNameParts {
		if strings.Contains(name, bad.substr) {
			return &ValidationError{
				Type:    "invalid_name",
				Tensor:  name,
				Details: bad.reason,
			}
		}
	}

	return nil
}

// ValidateHeader runs the checks selected by level against a parsed
// header. dataSize is the length of the file's data section.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if err := checkTensorCount(len(h.Tensors)); err != nil {
		return err
	}
	for _, meta := range h.Tensors {
		if err := ValidateTensorName(meta.Name); err != nil {
			return err
		}
	}

	// Offset layout is the expensive check; strict mode only.
	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}

	return nil
}
