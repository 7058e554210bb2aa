package flow

// Reply is the structured outcome of a conversation event. The
// transport renders it however it likes; the core never formats
// delivery markup.
type Reply struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices,omitempty"`
	Links   []Link   `json:"links,omitempty"`
}

// Choice is a selectable option the transport should offer.
type Choice struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Link is a URL the transport should surface.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Choice data values the transport routes back as events.
const (
	ChoiceSelectPrefix = "select:"
	ChoiceConfirm      = "confirm"
	ChoiceCancel       = "cancel"
	ChoiceCheckPayment = "check_payment"
	ChoiceNewExchange  = "new_exchange"
)
