package zone

// Group is a service zone with its table and staff assignments as POS
// clients exchange it.
type Group struct {
	ID               int64   `json:"Id"`
	Name             string  `json:"Name"`
	AssignedTableIDs []int64 `json:"AssignedTableIds"`
	AssignedStaffIDs []int64 `json:"AssignedStaffIds"`
}
