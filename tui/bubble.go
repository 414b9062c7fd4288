package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
	"github.com/vidbridge/vidbridge/clock"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/registry"
)

const eventBuffer = 256

// statefulBubble encapsulates the application state of the controller.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	spinnerC   spinner.Model
	instancesC list.Model
	helpC      help.Model

	registry *registry.Registry
	entries  map[protocol.Instance]*entry
	newClock func() *clock.Clock

	tabsChannel    chan protocol.Instances
	messageChannel chan registry.Message

	tabsCallback    *observer.Callback[protocol.Instances]
	messageCallback *observer.Callback[registry.Message]

	bridgeVersion mo.Option[string]
	compatible    bool
	status        string
	lastError     error

	width, height int

	options *Options
}

func newBubble(options *Options) *statefulBubble {
	if options.VersionTimeout <= 0 {
		options.VersionTimeout = 5 * time.Second
	}

	bubble := &statefulBubble{
		keymap:         newStatefulKeymap(),
		registry:       options.Registry,
		entries:        make(map[protocol.Instance]*entry),
		newClock:       func() *clock.Clock { return clock.New(nil) },
		tabsChannel:    make(chan protocol.Instances, 1),
		messageChannel: make(chan registry.Message, eventBuffer),
		options:        options,
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(color.New("205"))

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(color.Playing).
		Foreground(color.Playing).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.instancesC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.instancesC.Title = "Instances"
	bubble.instancesC.KeyMap = bubble.keymap.forList()
	bubble.instancesC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
	bubble.instancesC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return bubble.keymap.FullHelp()[0]
	}
	bubble.instancesC.Styles.NoItems = paddingStyle
	bubble.instancesC.SetShowStatusBar(false)
	bubble.instancesC.SetFilteringEnabled(false)

	bubble.attach()
	bubble.setState(loadingState)

	return bubble
}

// attach subscribes to the registry. Callbacks run on the transport
// goroutine, so they only hand values over to the program.
func (b *statefulBubble) attach() {
	if b.registry == nil {
		return
	}

	b.tabsCallback = observer.Func(func(tabs protocol.Instances) {
		// keep only the newest snapshot
		select {
		case <-b.tabsChannel:
		default:
		}
		b.tabsChannel <- tabs
	})
	b.messageCallback = observer.Func(func(m registry.Message) {
		select {
		case b.messageChannel <- m:
		default:
			log.Warnf("tui: dropping %s, event buffer full", m.Data.Command())
		}
	})

	b.registry.SubscribeTabs(b.tabsCallback)
	b.registry.Subscribe(b.messageCallback)
}

func (b *statefulBubble) detach() {
	if b.registry == nil {
		return
	}
	b.registry.UnsubscribeTabs(b.tabsCallback)
	b.registry.Unsubscribe(b.messageCallback)
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.setState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	b.width, b.height = width, height

	xx, yy := listExtraPaddingStyle.GetFrameSize()
	listWidth := width - xx
	listHeight := height - yy - headerHeight

	b.instancesC.SetSize(listWidth, listHeight)
	b.instancesC.Help.Width = listWidth
	b.helpC.Width = listWidth
}

// entry returns the mirror of instance, creating it if needed.
func (b *statefulBubble) entry(instance protocol.Instance) *entry {
	e, ok := b.entries[instance]
	if !ok {
		e = newEntry(instance, b.newClock())
		b.entries[instance] = e
	}
	return e
}

// selected returns the instance under the cursor.
func (b *statefulBubble) selected() mo.Option[*entry] {
	item, ok := b.instancesC.SelectedItem().(*listItem)
	if !ok {
		return mo.None[*entry]()
	}
	return mo.Some(item.entry)
}
