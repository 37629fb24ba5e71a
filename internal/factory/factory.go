package factory

import (
	"fmt"

	"go-photo-insight/internal/analyzer"
	"go-photo-insight/internal/config"
	"go-photo-insight/internal/model"
	"go-photo-insight/internal/storage"
	"go-photo-insight/pkg/models"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for the local file system
	LocalStorage StorageType = "local"
)

// AnalyzerFactory builds the full analyzer set
type AnalyzerFactory interface {
	CreateAnalyzer(kind models.UnitKind) (analyzer.Analyzer, error)
	CreateSet() (map[models.UnitKind]analyzer.Analyzer, error)
}

// StorageFactory creates image-source implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	mgr *model.Manager
	cfg *config.Config
	ocr analyzer.OCREngine
}

// NewAnalyzerFactory creates a new analyzer factory. ocr may be nil to use
// the tesseract-backed default engine.
func NewAnalyzerFactory(mgr *model.Manager, cfg *config.Config, ocr analyzer.OCREngine) AnalyzerFactory {
	return &analyzerFactory{mgr: mgr, cfg: cfg, ocr: ocr}
}

// CreateAnalyzer creates one analyzer for the given kind
func (f *analyzerFactory) CreateAnalyzer(kind models.UnitKind) (analyzer.Analyzer, error) {
	fast := f.cfg.FastAnalyzerTimeout
	modelBacked := f.cfg.ModelAnalyzerTimeout

	switch kind {
	case models.UnitClassification:
		return analyzer.NewBaseClassifier(f.mgr, modelBacked), nil
	case models.UnitSupplementalClassifier:
		return analyzer.NewSupplementalClassifier(f.mgr, modelBacked), nil
	case models.UnitObjectDetection:
		return analyzer.NewObjectDetector(f.mgr, modelBacked), nil
	case models.UnitScene:
		return analyzer.NewSceneClassifier(f.mgr, modelBacked), nil
	case models.UnitText:
		return analyzer.NewTextRecognizer(f.ocr, modelBacked, ""), nil
	case models.UnitColor:
		return analyzer.NewColorAnalyzer(fast), nil
	case models.UnitSaliency:
		return analyzer.NewSaliencyDetector(fast), nil
	case models.UnitLandmark:
		return analyzer.NewLandmarkDetector(f.mgr, modelBacked), nil
	case models.UnitBarcode:
		return analyzer.NewBarcodeDetector(fast), nil
	case models.UnitHorizon:
		return analyzer.NewHorizonDetector(fast), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer kind: %s", kind)
	}
}

// CreateSet builds one analyzer per known kind, keyed by kind
func (f *analyzerFactory) CreateSet() (map[models.UnitKind]analyzer.Analyzer, error) {
	kinds := []models.UnitKind{
		models.UnitClassification,
		models.UnitSupplementalClassifier,
		models.UnitObjectDetection,
		models.UnitScene,
		models.UnitText,
		models.UnitColor,
		models.UnitSaliency,
		models.UnitLandmark,
		models.UnitBarcode,
		models.UnitHorizon,
	}

	set := make(map[models.UnitKind]analyzer.Analyzer, len(kinds))
	for _, kind := range kinds {
		a, err := f.CreateAnalyzer(kind)
		if err != nil {
			return nil, err
		}
		set[kind] = a
	}
	return set, nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates an image source based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureStorage:
		return storage.NewAzureImageFetcher()
	case LocalStorage:
		return storage.NewLocalImageFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
