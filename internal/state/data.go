package state

import "github.com/dshills/folio/internal/annotation"

// LoadKey names a remote-backed collection with a loading flag.
type LoadKey uint8

const (
	LoadAnnotations LoadKey = iota
	LoadBookmarks
)

// DataState holds the remote-backed annotation and bookmark caches.
// Annotations are kept sorted by (UnitIndex, CreatedAt) ascending;
// the invariant is re-established after every insert.
type DataState struct {
	Annotations []annotation.Annotation
	Bookmarks   []annotation.Bookmark

	LoadingAnnotations bool
	LoadingBookmarks   bool

	// EditingID is the annotation currently being edited, empty when
	// none.
	EditingID string
}

// DefaultDataState returns the empty data slice.
func DefaultDataState() DataState {
	return DataState{}
}

// reduceData applies one action to the data slice. Slices are copied
// before modification so prior snapshots stay valid.
func reduceData(s DataState, a Action) DataState {
	switch act := a.(type) {
	case SetAnnotations:
		annots := append([]annotation.Annotation(nil), act.Annotations...)
		annotation.Sort(annots)
		s.Annotations = annots

	case AddAnnotation:
		annots := make([]annotation.Annotation, 0, len(s.Annotations)+1)
		annots = append(annots, s.Annotations...)
		annots = append(annots, act.Annotation)
		annotation.Sort(annots)
		s.Annotations = annots

	case DeleteAnnotation:
		idx := annotIndex(s.Annotations, act.ID)
		if idx < 0 {
			break // deletion raced a remote eviction; not an error
		}
		annots := make([]annotation.Annotation, 0, len(s.Annotations)-1)
		annots = append(annots, s.Annotations[:idx]...)
		annots = append(annots, s.Annotations[idx+1:]...)
		s.Annotations = annots

	case UpdateAnnotation:
		idx := annotIndex(s.Annotations, act.ID)
		if idx < 0 {
			break
		}
		annots := append([]annotation.Annotation(nil), s.Annotations...)
		if act.Note != nil {
			annots[idx].Note = *act.Note
		}
		if act.Color != nil {
			annots[idx].Color = *act.Color
			annots[idx].ColorHex = annotation.HexForName(*act.Color)
		}
		s.Annotations = annots

	case SetBookmarks:
		s.Bookmarks = append([]annotation.Bookmark(nil), act.Bookmarks...)

	case AddBookmark:
		marks := make([]annotation.Bookmark, 0, len(s.Bookmarks)+1)
		marks = append(marks, s.Bookmarks...)
		marks = append(marks, act.Bookmark)
		s.Bookmarks = marks

	case DeleteBookmark:
		for i, b := range s.Bookmarks {
			if b.ID == act.ID {
				marks := make([]annotation.Bookmark, 0, len(s.Bookmarks)-1)
				marks = append(marks, s.Bookmarks[:i]...)
				marks = append(marks, s.Bookmarks[i+1:]...)
				s.Bookmarks = marks
				break
			}
		}

	case SetLoading:
		switch act.Key {
		case LoadAnnotations:
			s.LoadingAnnotations = act.Loading
		case LoadBookmarks:
			s.LoadingBookmarks = act.Loading
		}

	case SetEditingTarget:
		s.EditingID = act.ID
	}
	return s
}

func annotIndex(annots []annotation.Annotation, id string) int {
	for i, a := range annots {
		if a.ID == id {
			return i
		}
	}
	return -1
}
