package rhizo

import (
	"encoding/json"
	"fmt"
)

// Dataset is a meta model plus the native records of one model type. It is
// the unit handed to record sinks and to the visualization host.
type Dataset struct {
	ModelType string         `json:"modelType"`
	MetaModel MetaModel      `json:"metaModel"`
	Records   []NativeRecord `json:"records"`
}

// BuildDataset bridges every model and builds a fresh meta model.
func BuildDataset[T any](mapping Mapping, models []T) (*Dataset, error) {
	bridge, err := NewTypedBridge[T](mapping)
	if err != nil {
		return nil, err
	}
	records := make([]NativeRecord, 0, len(models))
	for i, m := range models {
		rec, err := bridge.ToNative(m)
		if err != nil {
			return nil, fmt.Errorf("bridge model %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return &Dataset{
		ModelType: mapping.ModelType().String(),
		MetaModel: mapping.NewMetaModelFactory(nil).NewMetaModel(),
		Records:   records,
	}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Chunk splits the dataset into datasets of at most size records sharing
// the same meta model.
func (d *Dataset) Chunk(size int) []*Dataset {
	if size <= 0 || len(d.Records) <= size {
		return []*Dataset{d}
	}
	chunks := make([]*Dataset, 0, (len(d.Records)+size-1)/size)
	for start := 0; start < len(d.Records); start += size {
		end := min(start+size, len(d.Records))
		chunks = append(chunks, &Dataset{
			ModelType: d.ModelType,
			MetaModel: d.MetaModel,
			Records:   d.Records[start:end],
		})
	}
	return chunks
}

// MarshalIndent renders the dataset as indented JSON, without hidden keys.
func (d *Dataset) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
