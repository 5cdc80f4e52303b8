package serialization

import (
	"time"

	"github.com/grad-ml/grad/internal/tensor"
)

// Binary layout constants for the .grad container.
const (
	MagicBytes      = "GRAD"
	FormatVersion   = 1    // Current .grad format version
	HeaderAlignment = 64   // Tensor data is aligned to 64 bytes
	FixedHeaderSize = 64   // Fixed binary header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Dtype names as they appear in the JSON header.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Flag bits in the fixed header.
const (
	FlagCompressed   uint32 = 1 << 0 // bit 0: gzip compression (reserved)
	FlagHasOptimizer uint32 = 1 << 1 // bit 1: optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header in a .grad file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // Version of the .grad format
	GradVersion    string            `json:"grad_version"`         // Library version that created this file
	ModelType      string            `json:"model_type"`           // Type of model (e.g., "Sequential", "Linear")
	CreatedAt      time.Time         `json:"created_at"`           // When the file was created
	Tensors        []TensorMeta      `json:"tensors"`              // Tensor metadata
	Metadata       map[string]string `json:"metadata"`             // Custom metadata
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Checkpoint metadata (optional)
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`    // Whether this is a checkpoint file
	Epoch           int            `json:"epoch"`            // Training epoch number
	Step            int64          `json:"step"`             // Training step number
	Loss            float64        `json:"loss"`             // Loss value at checkpoint
	OptimizerType   string         `json:"optimizer_type"`   // Optimizer type ("SGD", "Adam", etc.)
	OptimizerConfig map[string]any `json:"optimizer_config"` // Optimizer hyperparameters
	TrainingMeta    map[string]any `json:"training_meta"`    // Additional training metadata
}

// TensorMeta describes a tensor in the .grad file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "0.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32", "float64")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

var dtypeNames = map[tensor.DataType]string{
	tensor.Float32: DTypeFloat32,
	tensor.Float64: DTypeFloat64,
	tensor.Int32:   DTypeInt32,
	tensor.Int64:   DTypeInt64,
	tensor.Uint8:   DTypeUint8,
}

var dtypesByName = func() map[string]tensor.DataType {
	m := make(map[string]tensor.DataType, len(dtypeNames))
	for dt, name := range dtypeNames {
		m[name] = dt
	}
	return m
}()

// dtypeToString converts tensor.DataType to its header name.
func dtypeToString(dt tensor.DataType) string {
	if name, ok := dtypeNames[dt]; ok {
		return name
	}
	return "unknown"
}

// stringToDtype converts a header name back to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	dt, ok := dtypesByName[s]
	return dt, ok
}
