package bill

// Routes the controllers navigate to
const (
	RouteBills   = "#employee/bills"
	RouteNewBill = "#employee/bill/new"
)

// Navigator moves the host view to a route
type Navigator func(path string)
