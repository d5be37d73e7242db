package events

// Topics emitted by the venue workflows.
const (
	TopicTicketOpened  = "ticket.opened"
	TopicTicketClosed  = "ticket.closed"
	TopicSessionClosed = "table.session.closed"
)
