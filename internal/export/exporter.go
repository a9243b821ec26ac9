// Package export renders completed runs as GeoJSON artifacts and
// pushes them to object storage for map frontends and offline review.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/voter-segmentation/internal/repository"
	"github.com/voter-segmentation/internal/storage"
	"github.com/voter-segmentation/pkg/compression"
	"github.com/voter-segmentation/pkg/model"
	"github.com/voter-segmentation/pkg/utils"
)

// Exporter writes one FeatureCollection per run, keyed by node and
// version.
type Exporter struct {
	segments repository.SegmentRepository
	store    storage.Storage
	logger   utils.Logger
	codec    compression.Codec
}

// NewExporter creates an Exporter. Artifacts are uploaded uncompressed
// until SetCodec is called.
func NewExporter(segments repository.SegmentRepository, store storage.Storage, logger utils.Logger) *Exporter {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Exporter{segments: segments, store: store, logger: logger, codec: &compression.NoneCodec{}}
}

// SetCodec selects the artifact compression codec.
func (e *Exporter) SetCodec(codec compression.Codec) {
	if codec != nil {
		e.codec = codec
	}
}

// Key returns the storage key of a run artifact.
func (e *Exporter) Key(nodeID string, version int) string {
	return fmt.Sprintf("runs/%s/%d.geojson%s", nodeID, version, e.codec.Ext())
}

// ExportRun renders the node's draft segments to GeoJSON and uploads
// the artifact. It returns the artifact's storage URL.
func (e *Exporter) ExportRun(ctx context.Context, nodeID string, version int) (string, error) {
	segments, err := e.segments.ListByNode(ctx, nodeID, "draft")
	if err != nil {
		return "", fmt.Errorf("failed to load segments for export: %w", err)
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("node %s has no draft segments to export", nodeID)
	}

	fc, err := buildFeatureCollection(segments)
	if err != nil {
		return "", err
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal feature collection: %w", err)
	}

	data, err = e.codec.Compress(data)
	if err != nil {
		return "", fmt.Errorf("failed to compress run artifact: %w", err)
	}

	key := e.Key(nodeID, version)
	if err := e.store.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload run artifact: %w", err)
	}

	url := e.store.GetURL(key)
	e.logger.Info("exported %d segments to %s", len(segments), url)
	return url, nil
}

func buildFeatureCollection(segments []model.Segment) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, s := range segments {
		g, err := geojson.UnmarshalGeometry([]byte(s.GeometryJSON))
		if err != nil {
			return nil, fmt.Errorf("segment %s has unparseable geometry: %w", s.ID, err)
		}

		f := geojson.NewFeature(g.Geometry())
		f.ID = s.ID
		f.Properties = geojson.Properties{
			"name":           s.Name,
			"color":          s.Color,
			"segment_code":   s.Metadata.SegmentCode,
			"algorithm":      s.Metadata.Algorithm,
			"version":        s.Metadata.Version,
			"total_voters":   s.TotalVoters,
			"total_families": s.TotalFamilies,
			"centroid_lat":   s.CentroidLat,
			"centroid_lng":   s.CentroidLng,
			"area_m2":        s.AreaM2,
		}
		if s.Metadata.Exception {
			f.Properties["exception"] = s.Metadata.ExceptionType
			f.Properties["requires_manual_review"] = true
		}
		fc.Append(f)
	}
	return fc, nil
}
