package ml

import (
	"errors"
)

func LoadModel(modelType, path string) (Classifier, error) {
	switch modelType {
	case "random_forest":
		model := &Forest{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}
