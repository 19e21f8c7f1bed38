package user

// The list helpers never modify their input; each returns a fresh slice
// so callers can keep the old one as a rollback snapshot.

// Clone returns a copy of list. A nil list clones to an empty, non-nil slice.
func Clone(list []Record) []Record {
	out := make([]Record, len(list))
	copy(out, list)
	return out
}

// Prepend returns a new list with rec in front.
func Prepend(list []Record, rec Record) []Record {
	out := make([]Record, 0, len(list)+1)
	out = append(out, rec)
	return append(out, list...)
}

// Index returns the position of the first record with id, or -1.
func Index(list []Record, id int) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the first record with id.
func Find(list []Record, id int) (Record, bool) {
	i := Index(list, id)
	if i < 0 {
		return Record{}, false
	}
	return list[i], true
}

// Replace returns a new list where the first record with id is replaced by rec.
// The list is returned unchanged (as a copy) when no record matches.
func Replace(list []Record, id int, rec Record) []Record {
	out := Clone(list)
	if i := Index(out, id); i >= 0 {
		out[i] = rec
	}
	return out
}

// ReplaceMatch replaces the first record equal to match. It is used to swap
// a placeholder, which shares UnsavedID with other placeholders, for the saved record.
func ReplaceMatch(list []Record, match, rec Record) []Record {
	out := Clone(list)
	for i, r := range out {
		if r == match {
			out[i] = rec
			break
		}
	}
	return out
}

// Insert returns a new list with rec at index. An index past the end
// appends and a negative one prepends.
func Insert(list []Record, index int, rec Record) []Record {
	index = max(0, min(index, len(list)))
	out := make([]Record, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, rec)
	return append(out, list[index:]...)
}

// Remove returns a new list without any record carrying id.
func Remove(list []Record, id int) []Record {
	out := make([]Record, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// RemoveMatch returns a new list without the first record equal to match.
func RemoveMatch(list []Record, match Record) []Record {
	out := make([]Record, 0, len(list))
	removed := false
	for _, r := range list {
		if !removed && r == match {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out
}
