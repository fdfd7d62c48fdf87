package application

// Presenter is the UI boundary. The synchronizer calls it from its own
// goroutine only, one call at a time.
type Presenter interface {
	ShowState(state State)
	ShowSession(view SessionView)
	ShowConnectPrompt(message string)
	ShowEventDetails(view EventView)
	ShowTicketList(cards []TicketCard)
	ShowTicketDetail(detail TicketDetail)
	ShowNotice(message string)
	ShowError(err error)
}

type NopPresenter struct{}

func (NopPresenter) ShowState(State)               {}
func (NopPresenter) ShowSession(SessionView)       {}
func (NopPresenter) ShowConnectPrompt(string)      {}
func (NopPresenter) ShowEventDetails(EventView)    {}
func (NopPresenter) ShowTicketList([]TicketCard)   {}
func (NopPresenter) ShowTicketDetail(TicketDetail) {}
func (NopPresenter) ShowNotice(string)             {}
func (NopPresenter) ShowError(error)               {}
