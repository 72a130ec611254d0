package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
)

var _ list.Item = queueItem{}

// queueItem wraps [models.Item] to implement [list.Item].
type queueItem struct {
	item models.Item
}

func (i queueItem) FilterValue() string { return i.item.DisplayTitle() }
func (i queueItem) Title() string       { return i.item.DisplayTitle() }
func (i queueItem) Description() string {
	desc := "?"
	if d, ok := i.item.KnownDuration(); ok {
		desc = shared.FormatDuration(d)
	}
	if i.item.RequestedBy != "" {
		desc = fmt.Sprintf("%s • requested by %s", desc, i.item.RequestedBy)
	}
	return desc
}

func queueItems(items []models.Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = queueItem{item: it}
	}
	return out
}
