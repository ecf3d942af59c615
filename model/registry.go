package model

// StyleID is a 0-based, dense index into a StyleRegistry.
type StyleID int

// StyleRegistry is a per-sheet, insertion-ordered, hash-consed dedup table
// mapping canonical style keys to dense 0-based ids. It is a value type:
// Register returns a new registry reflecting the insertion rather than
// mutating the receiver, so registries compose with the rest of the
// immutable model.
type StyleRegistry struct {
	styles []CellStyle
	keyToID map[string]StyleID

	// customFormats holds custom number-format codes registered dynamically,
	// keyed by code, assigned ids starting at 164 per ECMA-376.
	customFormats   []string
	customFormatIDs map[string]int
}

// NewStyleRegistry returns an empty registry.
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{
		keyToID:         map[string]StyleID{},
		customFormatIDs: map[string]int{},
	}
}

// clone returns a deep-enough copy for copy-on-write semantics.
func (r *StyleRegistry) clone() *StyleRegistry {
	if r == nil {
		return NewStyleRegistry()
	}
	n := &StyleRegistry{
		styles:          append([]CellStyle(nil), r.styles...),
		keyToID:         make(map[string]StyleID, len(r.keyToID)),
		customFormats:   append([]string(nil), r.customFormats...),
		customFormatIDs: make(map[string]int, len(r.customFormatIDs)),
	}
	for k, v := range r.keyToID {
		n.keyToID[k] = v
	}
	for k, v := range r.customFormatIDs {
		n.customFormatIDs[k] = v
	}
	return n
}

// Register returns the existing StyleID for style if an equal style (by
// canonical key) was already registered, or appends it and returns the new
// id. It returns a new registry reflecting the possible insertion; the
// receiver is left unmodified.
func (r *StyleRegistry) Register(style CellStyle) (*StyleRegistry, StyleID) {
	key := style.CanonicalKey()
	if r != nil {
		if id, ok := r.keyToID[key]; ok {
			return r, id
		}
	}
	n := r.clone()
	if style.NumFmt.Code == NumFmtCustom {
		n.registerCustomFormat(style.NumFmt.CustomCode)
	}
	id := StyleID(len(n.styles))
	n.styles = append(n.styles, style)
	n.keyToID[key] = id
	return n, id
}

// registerCustomFormat assigns a dynamic numFmtId (starting at 164) to a
// custom format code, if not already assigned.
func (r *StyleRegistry) registerCustomFormat(code string) int {
	if id, ok := r.customFormatIDs[code]; ok {
		return id
	}
	id := 164 + len(r.customFormats)
	r.customFormats = append(r.customFormats, code)
	r.customFormatIDs[code] = id
	return id
}

// CustomFormatID returns the dynamically assigned numFmtId for a custom
// format code, or -1 if it was never registered.
func (r *StyleRegistry) CustomFormatID(code string) int {
	if r == nil {
		return -1
	}
	if id, ok := r.customFormatIDs[code]; ok {
		return id
	}
	return -1
}

// CustomFormats returns the registered custom format codes in insertion
// order (their ids are 164, 165, ...).
func (r *StyleRegistry) CustomFormats() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.customFormats...)
}

// Style returns the style registered under id.
func (r *StyleRegistry) Style(id StyleID) (CellStyle, bool) {
	if r == nil || int(id) < 0 || int(id) >= len(r.styles) {
		return CellStyle{}, false
	}
	return r.styles[id], true
}

// Len returns the number of registered styles.
func (r *StyleRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.styles)
}

// All returns the registered styles in insertion (= id) order.
func (r *StyleRegistry) All() []CellStyle {
	if r == nil {
		return nil
	}
	return append([]CellStyle(nil), r.styles...)
}
