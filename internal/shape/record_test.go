package shape

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

func nestedCompound() Compound {
	return Compound{Parts: []Part{
		{Transform: Offset(2, 0, 0), Shape: Ball{Radius: 1}},
		{Transform: Transform{Rotation: mgl64.Vec3{0, 0.5, 0}}, Shape: Compound{Parts: []Part{
			{Transform: Offset(-2, 0, 0), Shape: Cuboid{HalfExtents: mgl64.Vec3{1, 1, 1}}},
			{Transform: Offset(0, 3, 0), Shape: Capsule{HalfHeight: 1, Radius: 0.25}},
		}}},
	}}
}

func allVariants() []Shape {
	return []Shape{
		Ball{Radius: 1.5},
		Capsule{HalfHeight: 2, Radius: 0.5},
		ConvexHull{Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}},
		Cuboid{HalfExtents: mgl64.Vec3{1, 2, 3}},
		HeightField{Heights: []float64{0, 1, 2, 3}, Dimensions: [2]int{2, 2}, Scale: mgl64.Vec3{10, 1, 10}},
		Plane{Normal: mgl64.Vec3{0, 1, 0}},
		Segment{A: mgl64.Vec3{0, 0, 0}, B: mgl64.Vec3{1, 1, 1}},
		TriMesh{Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}, Indices: [][3]int{{0, 1, 2}}},
		Triangle{A: mgl64.Vec3{0, 0, 0}, B: mgl64.Vec3{1, 0, 0}, C: mgl64.Vec3{0, 1, 0}},
		nestedCompound(),
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	for _, s := range allVariants() {
		t.Run(s.Kind().String(), func(t *testing.T) {
			data, err := MarshalJSON(s)
			if err != nil {
				t.Fatalf("MarshalJSON failed: %v", err)
			}
			if !strings.HasPrefix(string(data), `{"`+s.Kind().String()+`":`) {
				t.Errorf("Expected record tagged %s, got %s", s.Kind(), data)
			}
			got, err := UnmarshalJSON(data)
			if err != nil {
				t.Fatalf("UnmarshalJSON failed: %v", err)
			}
			if !reflect.DeepEqual(got, s) {
				t.Errorf("Round trip mismatch:\nwant %#v\ngot  %#v", s, got)
			}
		})
	}
}

func TestRecordYAMLRoundTrip(t *testing.T) {
	for _, s := range allVariants() {
		t.Run(s.Kind().String(), func(t *testing.T) {
			data, err := yaml.Marshal(Record{Shape: s})
			if err != nil {
				t.Fatalf("yaml.Marshal failed: %v", err)
			}
			var got Record
			if err := yaml.Unmarshal(data, &got); err != nil {
				t.Fatalf("yaml.Unmarshal failed: %v\n%s", err, data)
			}
			if !reflect.DeepEqual(got.Shape, s) {
				t.Errorf("Round trip mismatch:\nwant %#v\ngot  %#v", s, got.Shape)
			}
		})
	}
}

func TestRecordCompoundFormat(t *testing.T) {
	data, err := MarshalJSON(Compound{Parts: []Part{{Transform: Offset(1, 0, 0), Shape: Ball{Radius: 2}}}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Compound":{"parts":[{"transform":{"translation":[1,0,0],"rotation":[0,0,0]},"shape":{"Ball":{"radius":2}}}]}}`
	if string(data) != want {
		t.Errorf("Unexpected encoding\nwant %s\ngot  %s", want, data)
	}
}

func TestRecordDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown tag", `{"Sphere":{"radius":1}}`, ErrUnknownTag},
		{"two variants", `{"Ball":{"radius":1},"Plane":{"normal":[0,1,0]}}`, ErrBadRecord},
		{"no variant", `{}`, ErrBadRecord},
		{"part without shape", `{"Compound":{"parts":[{"transform":{"translation":[0,0,0]}}]}}`, ErrBadRecord},
		{"nested unknown tag", `{"Compound":{"parts":[{"transform":{"translation":[0,0,0]},"shape":{"Blob":{}}}]}}`, ErrUnknownTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalJSON([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	var r Record
	if err := yaml.Unmarshal([]byte("Ball: {radius: 1}\nPlane: {normal: [0, 1, 0]}\n"), &r); !errors.Is(err, ErrBadRecord) {
		t.Errorf("Expected ErrBadRecord from YAML, got %v", err)
	}

	if _, err := json.Marshal(Record{}); !errors.Is(err, ErrNilShape) {
		t.Errorf("Expected ErrNilShape, got %v", err)
	}
}

func TestHandleEncodesShapeOnly(t *testing.T) {
	h := NewHandle(nestedCompound())

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "solid") || strings.Contains(string(data), "bounds") {
		t.Errorf("Handle encoding should not carry derived geometry: %s", data)
	}

	var decoded Handle
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Solid() == nil {
		t.Fatal("Decoded handle should rebuild its solid")
	}
	if !reflect.DeepEqual(decoded.Shape(), h.Shape()) {
		t.Error("Decoded handle shape differs")
	}
	if decoded.LocalAABB() != h.LocalAABB() {
		t.Errorf("Expected bounds %v, got %v", h.LocalAABB(), decoded.LocalAABB())
	}

	out, err := yaml.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML Handle
	if err := yaml.Unmarshal(out, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromYAML.Shape(), h.Shape()) {
		t.Error("YAML decoded handle shape differs")
	}
}

func TestStringSummarizesBulkData(t *testing.T) {
	points := make([]mgl64.Vec3, 5000)
	got := ConvexHull{Points: points}.String()
	if got != "ConvexHull(points=5000)" {
		t.Errorf("Unexpected summary %q", got)
	}

	hf := HeightField{Heights: make([]float64, 100*200), Dimensions: [2]int{100, 200}}
	if got := hf.String(); got != "HeightField(rows=100, cols=200, heights=20000)" {
		t.Errorf("Unexpected summary %q", got)
	}

	if got := nestedCompound().String(); got != "Compound(parts=2, depth=2)" {
		t.Errorf("Unexpected summary %q", got)
	}
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary()
	ball := lib.Register("ball", Ball{Radius: 1})
	lib.Register("ground", Plane{Normal: mgl64.Vec3{0, 1, 0}})

	got, err := lib.Get("ball")
	if err != nil || got != ball {
		t.Fatalf("Expected the registered handle, got %v %v", got, err)
	}
	if _, err := lib.Get("missing"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
	if name, ok := lib.NameOf(ball); !ok || name != "ball" {
		t.Errorf("Expected NameOf to find 'ball', got %q %v", name, ok)
	}
	if names := lib.Names(); !reflect.DeepEqual(names, []string{"ball", "ground"}) {
		t.Errorf("Unexpected names %v", names)
	}

	copyLib := NewLibrary()
	copyLib.LoadRecords(lib.Records())
	if copyLib.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", copyLib.Len())
	}
}
