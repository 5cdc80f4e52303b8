package nn

import (
	"github.com/grad-ml/grad/internal/serialization"
	"github.com/grad-ml/grad/internal/tensor"
)

// closeKeeping closes c and, when the surrounding function is otherwise
// succeeding, surfaces the close error through errp. Meant for defer.
func closeKeeping(c interface{ Close() error }, errp *error) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = cerr
	}
}

// Save writes a module's state dictionary to a .grad file.
//
// modelType names the architecture (e.g. "Sequential", "Linear") and is
// stored in the file header. Metadata is optional and may be nil.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	err := nn.Save(model, "model.grad", "Linear", nil)
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) (err error) {
	writer, err := serialization.NewGradWriter(path)
	if err != nil {
		return err
	}
	defer closeKeeping(writer, &err)

	return writer.WriteStateDict(module.StateDict(), modelType, metadata)
}

// Load reads a .grad file and loads its state dictionary into the
// module. The module must already have the matching architecture.
//
// Returns the file header alongside any error.
func Load[B tensor.Backend](path string, backend B, module Module[B]) (header serialization.Header, err error) {
	reader, err := serialization.NewGradReader(path)
	if err != nil {
		return serialization.Header{}, err
	}
	defer closeKeeping(reader, &err)

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, err
	}
	if err := module.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, err
	}
	return reader.Header(), nil
}
