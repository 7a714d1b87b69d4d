package normalizer

import (
	"strconv"

	"cryptodata/internal/document"
)

// EntityTable holds, per requested entity, an ordered list of labelled
// cells. It is what a provider wrapper assembles from one response per entity.
type EntityTable struct {
	cells    map[string][]document.Field
	entities []string
}

// NewEntityTable creates an empty table.
func NewEntityTable() *EntityTable {
	return &EntityTable{cells: make(map[string][]document.Field)}
}

// AddEntity registers an entity with no cells. Re-adding is a no-op.
func (t *EntityTable) AddEntity(entity string) {
	if t.cells == nil {
		t.cells = make(map[string][]document.Field)
	}

	if _, ok := t.cells[entity]; ok {
		return
	}

	t.entities = append(t.entities, entity)
	t.cells[entity] = nil
}

// Add appends cells to an entity, labelled by their position.
func (t *EntityTable) Add(entity string, cells ...document.Value) {
	t.AddEntity(entity)

	for _, c := range cells {
		label := strconv.Itoa(len(t.cells[entity]))
		t.cells[entity] = append(t.cells[entity], document.F(label, c))
	}
}

// AddDocument appends one cell per field of an object response, labelled by
// field name. Any other response becomes a single cell.
func (t *EntityTable) AddDocument(entity string, doc document.Value) {
	if doc.Kind() != document.KindObject {
		t.Add(entity, doc)

		return
	}

	t.AddEntity(entity)
	t.cells[entity] = append(t.cells[entity], doc.Fields()...)
}

// Entities returns entity ids in insertion order.
func (t *EntityTable) Entities() []string {
	out := make([]string, len(t.entities))
	copy(out, t.entities)

	return out
}

// Len returns the number of entities.
func (t *EntityTable) Len() int {
	return len(t.entities)
}

// Cells returns the cell values of an entity.
func (t *EntityTable) Cells(entity string) []document.Value {
	fields := t.cells[entity]

	out := make([]document.Value, len(fields))
	for i, f := range fields {
		out[i] = f.Value
	}

	return out
}

// Frame lays the table out with one column per entity and one row per
// distinct cell label.
func (t *EntityTable) Frame() *Frame {
	var labels []string

	rowOf := make(map[string]int)

	for _, e := range t.entities {
		for _, f := range t.cells[e] {
			if _, ok := rowOf[f.Key]; !ok {
				rowOf[f.Key] = len(labels)
				labels = append(labels, f.Key)
			}
		}
	}

	out := NewFrame(labels)

	for _, e := range t.entities {
		values := make([]document.Value, len(labels))
		for _, f := range t.cells[e] {
			values[rowOf[f.Key]] = f.Value
		}

		// values has one slot per label, so the length always matches.
		_ = out.AddColumn(Key{e}, values)
	}

	out.groups = t.Entities()

	return out
}

// FrameSet is an ordered collection of per-entity frames.
type FrameSet struct {
	entities []string
	frames   []*Frame
}

// Len returns the number of entity groups.
func (s *FrameSet) Len() int {
	return len(s.entities)
}

// Entities returns the entity ids in order.
func (s *FrameSet) Entities() []string {
	out := make([]string, len(s.entities))
	copy(out, s.entities)

	return out
}

// Frame returns the sub-table of an entity.
func (s *FrameSet) Frame(entity string) (*Frame, bool) {
	for i, e := range s.entities {
		if e == entity {
			return s.frames[i], true
		}
	}

	return nil, false
}

// Concat composes the sub-tables side by side under (entity, field) keys.
func (s *FrameSet) Concat() *Frame {
	// entities and frames are appended in pairs, so the lengths always match.
	out, _ := ConcatFrames(s.entities, s.frames)

	return out
}

// UnpackLists expands entities whose cells are arrays of records. Each
// entity's arrays are concatenated into one sub-table with fresh row labels.
func UnpackLists(t *EntityTable) (*FrameSet, error) {
	set := &FrameSet{}

	for _, entity := range t.entities {
		var records []document.Value

		for row, cell := range t.Cells(entity) {
			if cell.Kind() != document.KindArray {
				return nil, &ShapeError{Entity: entity, Row: row, Expected: document.KindArray, Got: cell.Kind()}
			}

			for _, item := range cell.Items() {
				if item.Kind() != document.KindObject {
					return nil, &ShapeError{Entity: entity, Row: row, Expected: document.KindObject, Got: item.Kind()}
				}

				records = append(records, item)
			}
		}

		set.entities = append(set.entities, entity)
		set.frames = append(set.frames, recordsFrame(records))
	}

	return set, nil
}

// UnpackDicts expands entities whose cells are single records, one row each.
func UnpackDicts(t *EntityTable) (*FrameSet, error) {
	set := &FrameSet{}

	for _, entity := range t.entities {
		cells := t.Cells(entity)

		for row, cell := range cells {
			if cell.Kind() != document.KindObject {
				return nil, &ShapeError{Entity: entity, Row: row, Expected: document.KindObject, Got: cell.Kind()}
			}
		}

		set.entities = append(set.entities, entity)
		set.frames = append(set.frames, recordsFrame(cells))
	}

	return set, nil
}
