package storage

import (
	"github.com/julianstephens/habitquest/internal/events"
	"github.com/julianstephens/habitquest/internal/models"
)

// notifying publishes a change event after every successful mutation.
// Reads pass straight through to the wrapped provider.
type notifying struct {
	Provider
	bus *events.Bus
}

// WithEvents wraps p so that mutations publish on bus before returning.
func WithEvents(p Provider, bus *events.Bus) Provider {
	return &notifying{Provider: p, bus: bus}
}

func (n *notifying) publish(t events.Type, habitID string) {
	n.bus.Publish(events.Event{Type: t, HabitID: habitID})
}

func (n *notifying) CreateHabit(def models.HabitDefinition) (models.Habit, error) {
	h, err := n.Provider.CreateHabit(def)
	if err == nil {
		n.publish(events.HabitsChanged, h.ID)
	}
	return h, err
}

func (n *notifying) UpdateHabit(id string, patch models.HabitPatch) (models.Habit, error) {
	h, err := n.Provider.UpdateHabit(id, patch)
	if err == nil {
		n.publish(events.HabitsChanged, id)
	}
	return h, err
}

func (n *notifying) DeleteHabit(id string) error {
	if err := n.Provider.DeleteHabit(id); err != nil {
		return err
	}
	n.publish(events.HabitsChanged, id)
	return nil
}

func (n *notifying) ReplaceAllHabits(habits []models.Habit) error {
	if err := n.Provider.ReplaceAllHabits(habits); err != nil {
		return err
	}
	n.publish(events.HabitsChanged, "")
	return nil
}

func (n *notifying) UpsertLog(l models.HabitLog) (models.HabitLog, error) {
	saved, err := n.Provider.UpsertLog(l)
	if err == nil {
		n.publish(events.LogsChanged, l.HabitID)
	}
	return saved, err
}

func (n *notifying) ReplaceAllLogs(logs []models.HabitLog) error {
	if err := n.Provider.ReplaceAllLogs(logs); err != nil {
		return err
	}
	n.publish(events.LogsChanged, "")
	return nil
}

func (n *notifying) DeleteLogsForHabit(habitID string) error {
	if err := n.Provider.DeleteLogsForHabit(habitID); err != nil {
		return err
	}
	n.publish(events.LogsChanged, habitID)
	return nil
}

func (n *notifying) AddHistoryEntry(e models.QuestHistoryEntry) error {
	if err := n.Provider.AddHistoryEntry(e); err != nil {
		return err
	}
	n.publish(events.HistoryChanged, e.ID)
	return nil
}

func (n *notifying) DeleteHistoryEntry(id string) error {
	if err := n.Provider.DeleteHistoryEntry(id); err != nil {
		return err
	}
	n.publish(events.HistoryChanged, id)
	return nil
}

func (n *notifying) ReplaceAllHistory(entries []models.QuestHistoryEntry) error {
	if err := n.Provider.ReplaceAllHistory(entries); err != nil {
		return err
	}
	n.publish(events.HistoryChanged, "")
	return nil
}

func (n *notifying) SetBalance(v int) error {
	if err := n.Provider.SetBalance(v); err != nil {
		return err
	}
	n.publish(events.WalletChanged, "")
	return nil
}

func (n *notifying) AddBalance(delta int) (int, error) {
	v, err := n.Provider.AddBalance(delta)
	if err == nil {
		n.publish(events.WalletChanged, "")
	}
	return v, err
}

func (n *notifying) MarkCompletionShown(habitID string) error {
	if err := n.Provider.MarkCompletionShown(habitID); err != nil {
		return err
	}
	n.publish(events.MarkersChanged, habitID)
	return nil
}

func (n *notifying) ApplyRevival(l models.HabitLog, cost int, satisfied func(models.HabitLog) bool) (int, error) {
	balance, err := n.Provider.ApplyRevival(l, cost, satisfied)
	if err != nil {
		return balance, err
	}
	n.publish(events.WalletChanged, "")
	n.publish(events.LogsChanged, l.HabitID)
	return balance, nil
}

// Unwrap returns the provider underneath the event decorator, if any.
func Unwrap(p Provider) Provider {
	if n, ok := p.(*notifying); ok {
		return n.Provider
	}
	return p
}
