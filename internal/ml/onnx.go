package ml

import (
	onnxruntime "github.com/yalue/onnxruntime_go"

	"mlserve/pkg/errors"
)

// Tensor names the training pipeline exports the classifier with.
const (
	inputName       = "input"
	classOutputName = "output"
	probOutputName  = "probabilities"
)

// fallbackClassCount is used when the artifact does not declare a static
// probability output width. Matches the two-class fallback label set of the
// metadata store.
const fallbackClassCount = 2

// ONNXModel wraps an ONNX Runtime session for classifier inference
type ONNXModel struct {
	session    *onnxruntime.DynamicAdvancedSession
	descriptor Descriptor
	numClasses int
}

// LoadONNXModel loads a classifier artifact from file. The load is fatal
// to the caller on a missing or corrupt file; inspection of the declared
// tensor shapes is best-effort and never fails the load.
func LoadONNXModel(modelPath string) (*ONNXModel, error) {
	// Initialize ONNX runtime environment (only once per process)
	if !onnxruntime.IsInitialized() {
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "failed to initialize ONNX runtime")
		}
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{inputName}, []string{classOutputName, probOutputName}, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ONNX model")
	}

	descriptor := probeShapes(modelPath)

	numClasses := descriptor.NumClasses
	if numClasses <= 0 {
		numClasses = fallbackClassCount
	}

	return &ONNXModel{
		session:    session,
		descriptor: descriptor,
		numClasses: numClasses,
	}, nil
}

// probeShapes reads the declared input/output tensor shapes from the
// artifact. Dynamic dimensions (-1) and probe failures leave the
// corresponding descriptor field at zero.
func probeShapes(modelPath string) Descriptor {
	var d Descriptor

	inputs, outputs, err := onnxruntime.GetInputOutputInfo(modelPath)
	if err != nil {
		return d
	}

	for _, info := range inputs {
		if info.Name != inputName {
			continue
		}
		if n := lastDim(info.Dimensions); n > 0 {
			d.FeatureCount = n
		}
	}

	for _, info := range outputs {
		if info.Name != probOutputName {
			continue
		}
		if n := lastDim(info.Dimensions); n > 0 {
			d.NumClasses = n
		}
	}

	return d
}

func lastDim(shape onnxruntime.Shape) int {
	if len(shape) == 0 {
		return 0
	}
	return int(shape[len(shape)-1])
}

// Descriptor reports the dimensions declared by the loaded artifact
func (m *ONNXModel) Descriptor() Descriptor {
	return m.descriptor
}

// Predict runs inference on a single feature vector
// Returns the predicted class index and the full probability vector
func (m *ONNXModel) Predict(features []float64) (int, []float64, error) {
	if m.session == nil {
		return 0, nil, errors.ErrModelNotLoaded
	}

	// Input tensor: shape [1, num_features]
	inputShape := onnxruntime.NewShape(1, int64(len(features)))
	inputTensor, err := onnxruntime.NewTensor(inputShape, features)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	// Output 1: predicted class (int64, shape [1])
	classOutput := make([]int64, 1)
	classTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1), classOutput)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create class output tensor")
	}
	defer classTensor.Destroy()

	// Output 2: probabilities (float64, shape [1, num_classes])
	probOutput := make([]float64, m.numClasses)
	probShape := onnxruntime.NewShape(1, int64(m.numClasses))
	probTensor, err := onnxruntime.NewTensor(probShape, probOutput)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create probabilities output tensor")
	}
	defer probTensor.Destroy()

	inputs := []onnxruntime.Value{inputTensor}
	outputs := []onnxruntime.Value{classTensor, probTensor}
	if err := m.session.Run(inputs, outputs); err != nil {
		return 0, nil, errors.Wrap(err, "session run failed")
	}

	classIndex := int(classOutput[0])
	if classIndex < 0 || classIndex >= len(probOutput) {
		return 0, nil, errors.Newf("class index %d outside probability vector of length %d",
			classIndex, len(probOutput))
	}

	probabilities := make([]float64, len(probOutput))
	copy(probabilities, probOutput)

	return classIndex, probabilities, nil
}

// Close cleans up the ONNX session
func (m *ONNXModel) Close() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
