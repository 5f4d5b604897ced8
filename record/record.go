package record

// DataField is one named, typed value inside a DataRecord.
type DataField struct {
	Name  Name
	Type  DataType
	Value Value
}

// DataRecord is an ordered sequence of DataFields produced by one successful
// rule match. Field-name-to-first-index lookup is stable: the first field
// with a given name wins later Get calls, even if the rule produced
// duplicates (e.g. a SomeOf group that matched the same meta twice).
type DataRecord struct {
	Fields []DataField

	index map[string]int // lazily built; first-insertion-wins
}

// NewRecord returns an empty record with capacity hinted by cap.
func NewRecord(cap int) *DataRecord {
	return &DataRecord{Fields: make([]DataField, 0, cap)}
}

// Add appends a field, preserving order. The lookup index is built
// lazily on the first Get/Index call; once it exists, Add records the new
// field in it unless the name is already indexed (first insertion wins),
// so repeated Add calls stay O(1) amortized.
func (r *DataRecord) Add(name Name, typ DataType, v Value) {
	r.Fields = append(r.Fields, DataField{Name: name, Type: typ, Value: v})
	if r.index != nil {
		if _, ok := r.index[name.String()]; !ok {
			r.index[name.String()] = len(r.Fields) - 1
		}
	}
}

func (r *DataRecord) buildIndex() {
	r.index = make(map[string]int, len(r.Fields))
	for i, f := range r.Fields {
		key := f.Name.String()
		if _, ok := r.index[key]; !ok {
			r.index[key] = i
		}
	}
}

// Index returns the position of the first field with the given name, and
// whether it exists.
func (r *DataRecord) Index(name string) (int, bool) {
	if r.index == nil {
		r.buildIndex()
	}
	i, ok := r.index[name]
	return i, ok
}

// Get returns the first field with the given name.
func (r *DataRecord) Get(name string) (DataField, bool) {
	i, ok := r.Index(name)
	if !ok {
		return DataField{}, false
	}
	return r.Fields[i], true
}

// Clone returns a deep-enough copy safe for a separate owner to mutate
// Fields on (the Value slices/sub-fields are shared, matching the
// immutable-after-parse discipline sinks rely on).
func (r *DataRecord) Clone() *DataRecord {
	out := &DataRecord{Fields: make([]DataField, len(r.Fields))}
	copy(out.Fields, r.Fields)
	return out
}
