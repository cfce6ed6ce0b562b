package domain

// ToastVariant selects how a toast is styled.
type ToastVariant string

const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is a transient, non-blocking notification for the user.
type Toast struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Variant     ToastVariant `json:"variant"`
}

// SignInFailedToast is shown for every failed submit, whatever the cause.
var SignInFailedToast = Toast{
	Title:       "Something went wrong.",
	Description: "Please try again later.",
	Variant:     ToastDestructive,
}
