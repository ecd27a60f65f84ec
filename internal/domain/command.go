package domain

// Command is an outbound instruction produced by the orchestrator.
// The set of implementations is closed: IssueOrder and CancelOrder.
type Command interface {
	command()
}

// IssueOrder asks the transport to place the order.
type IssueOrder struct {
	Order Order
}

// CancelOrder asks the transport to cancel the order with the given client id.
type CancelOrder struct {
	ID string
}

func (IssueOrder) command()  {}
func (CancelOrder) command() {}
