package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is the face region associated with a manifest row, given as
// pixel coordinates (X1,Y1)-(X2,Y2) in the full image.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

// String returns the box in the manifest's "x1,y1,x2,y2" form.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", b.X1, b.Y1, b.X2, b.Y2)
}

// Row is one parsed manifest entry. LineNumber is 1-based over data lines;
// the header line does not count.
type Row struct {
	Name       string
	ImageID    string
	FaceID     string
	URL        string
	BBox       BoundingBox
	HasBBox    bool
	SHA256     string
	LineNumber int
}

// ParseRow parses a single tab-separated manifest data line. The expected
// fields are: name, image_id, face_id, url, bounding box ("x1,y1,x2,y2"),
// and an optional sha256 checksum. The checksum is carried on the Row but
// never verified here.
func ParseRow(line string, lineNumber int) (*Row, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 5 {
		return nil, fmt.Errorf("expected at least 5 tab-separated fields, got %d", len(fields))
	}

	row := &Row{
		Name:       strings.TrimSpace(fields[0]),
		ImageID:    strings.TrimSpace(fields[1]),
		FaceID:     strings.TrimSpace(fields[2]),
		URL:        strings.TrimSpace(fields[3]),
		LineNumber: lineNumber,
	}

	if row.Name == "" {
		return nil, fmt.Errorf("name field is empty")
	}
	if row.ImageID == "" {
		return nil, fmt.Errorf("image id field is empty")
	}
	if row.URL == "" {
		return nil, fmt.Errorf("url field is empty")
	}

	bboxField := strings.TrimSpace(fields[4])
	if bboxField != "" {
		box, err := parseBoundingBox(bboxField)
		if err != nil {
			return nil, err
		}
		row.BBox = box
		row.HasBBox = true
	}

	if len(fields) >= 6 {
		row.SHA256 = strings.TrimSpace(fields[5])
	}

	return row, nil
}

// parseBoundingBox parses the "x1,y1,x2,y2" field. Coordinates must be
// integers; ordering and image-bounds sanity are the cropper's concern.
func parseBoundingBox(field string) (BoundingBox, error) {
	parts := strings.Split(field, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box must have 4 coordinates, got %d", len(parts))
	}

	coords := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return BoundingBox{}, fmt.Errorf("non-numeric bounding box coordinate %q", part)
		}
		coords[i] = v
	}

	return BoundingBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, nil
}

// URLHint extracts the url field from a raw manifest line on a best-effort
// basis, so failure log lines for unparseable rows can still name the URL.
func URLHint(line string) string {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		return "-"
	}
	u := strings.TrimSpace(fields[3])
	if u == "" {
		return "-"
	}
	return u
}
