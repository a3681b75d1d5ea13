package groundtruth

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"VisionForge/internal/entity"
)

// ILookup resolves an uploaded image to its reference annotations. Images
// are identified by content hash against a prebuilt index; unknown images
// resolve to an empty list.
type ILookup interface {
	Lookup(imageHash string) []entity.GroundTruthObject
	Size() int
}

type referenceIndex struct {
	log *logrus.Logger

	mu      sync.RWMutex
	entries map[string][]entity.GroundTruthObject
}

// New loads the reference index in the background from the JSON file at
// GROUND_TRUTH_INDEX (md5 hex -> annotation list). A missing or broken
// index is not fatal: lookups simply find nothing.
func New(log *logrus.Logger) ILookup {
	idx := &referenceIndex{
		log:     log,
		entries: make(map[string][]entity.GroundTruthObject),
	}

	path := os.Getenv("GROUND_TRUTH_INDEX")
	if path == "" {
		path = "./data/ground_truth_index.json"
	}
	go idx.load(path)

	return idx
}

func (idx *referenceIndex) load(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		idx.log.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Warn("Ground truth index not available, uploads will have no reference annotations")
		return
	}

	entries := make(map[string][]entity.GroundTruthObject)
	if err := jsoniter.Unmarshal(raw, &entries); err != nil {
		idx.log.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Error("Failed to parse ground truth index")
		return
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()

	idx.log.WithFields(logrus.Fields{
		"path":   path,
		"images": len(entries),
	}).Info("Ground truth index loaded")
}

func (idx *referenceIndex) Lookup(imageHash string) []entity.GroundTruthObject {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, ok := idx.entries[imageHash]
	if !ok {
		return []entity.GroundTruthObject{}
	}
	return append([]entity.GroundTruthObject{}, entry...)
}

func (idx *referenceIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
