package ordered

// AdjustCursor returns where a cursor should point after the item at deleted
// was removed and remaining items are left. The cursor follows the slot: it
// only moves when the item it pointed at was shifted down by the renumber.
func AdjustCursor(cursor *int, deleted, remaining int) *int {
	if remaining == 0 || cursor == nil {
		return nil
	}
	next := *cursor
	if next > deleted {
		next--
	}
	return &next
}
