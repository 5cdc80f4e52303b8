// Package serialization provides the native .grad format for saving and
// loading models and training checkpoints.
//
// The .grad format is a simple, efficient binary format:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00-0x03: Magic "GRAD"
//	    0x04-0x07: Version (uint32 LE)
//	    0x08-0x0B: Flags (uint32 LE)
//	    0x0C-0x0F: Reserved
//	    0x10-0x17: Header size (uint64 LE)
//	    0x18-0x1F: Data size (uint64 LE)
//	    0x20-0x3F: SHA-256 checksum of tensor data
//	  [Header: JSON metadata]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
// The format supports:
//   - Multiple data types (float32, float64, int32, int64, uint8, bool)
//   - Arbitrary tensor shapes
//   - Metadata preservation and checkpoint state
//   - Integrity verification via SHA-256
//
// Example usage:
//
//	// Save a model
//	writer, err := serialization.NewGradWriter("model.grad")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := writer.WriteStateDict(model.StateDict(), "Sequential", nil); err != nil {
//	    log.Fatal(err)
//	}
//	writer.Close()
//
//	// Load a model
//	reader, err := serialization.NewGradReader("model.grad")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stateDict, err := reader.ReadStateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.LoadStateDict(stateDict)
//	reader.Close()
package serialization
