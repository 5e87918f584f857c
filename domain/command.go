package domain

type CommandKind int

const (
	CreateCommand CommandKind = iota
	UpdateCommand
	DeleteCommand
)

func (k CommandKind) String() string {
	switch k {
	case UpdateCommand:
		return "update"
	case DeleteCommand:
		return "delete"
	default:
		return "create"
	}
}

// Command is an outbound intent. Fields are populated depending on the intent:
//   - create: Message/Images/Audio, SenderID set, no ID
//   - update: ID and Message, IsUpdate true
//   - delete: ID and DeleteFor
type Command struct {
	ID        *string
	Message   *string
	SenderID  string
	Images    []string
	Audio     *string
	DeleteFor []string
	IsUpdate  bool
}

// Kind resolves the discriminator. A non-empty DeleteFor wins over IsUpdate.
func (c Command) Kind() CommandKind {
	switch {
	case len(c.DeleteFor) > 0:
		return DeleteCommand
	case c.IsUpdate && c.ID != nil:
		return UpdateCommand
	default:
		return CreateCommand
	}
}

func NewCreateCommand(senderID string, text *string, images []string, audio *string) Command {
	return Command{
		Message:  text,
		SenderID: senderID,
		Images:   images,
		Audio:    audio,
		IsUpdate: false,
	}
}

func NewUpdateCommand(messageID, text string) Command {
	return Command{
		ID:       &messageID,
		Message:  &text,
		SenderID: "",
		IsUpdate: true,
	}
}

func NewDeleteCommand(messageID string, deleteFor []string) Command {
	return Command{
		ID:        &messageID,
		SenderID:  "",
		DeleteFor: deleteFor,
		IsUpdate:  false,
	}
}
