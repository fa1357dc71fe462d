package ops

import "context"

// VariationsInput contains parameters for the Variations operation.
type VariationsInput struct {
	Item string // ID or exact name
}

// VariationsOutput lists an item's family ordered by meta level.
type VariationsOutput struct {
	Item       ItemView   `json:"item"`
	Variations []ItemView `json:"variations"`
}

// Variations returns every item sharing the given item's family.
func (w *Workbench) Variations(_ context.Context, input VariationsInput) (*VariationsOutput, error) {
	item, err := w.resolveItem(input.Item)
	if err != nil {
		return nil, err
	}
	vars := w.items.Variations(item.ID)
	out := &VariationsOutput{
		Item:       newItemView(item),
		Variations: make([]ItemView, 0, len(vars)),
	}
	for _, v := range vars {
		out.Variations = append(out.Variations, newItemView(v))
	}
	return out, nil
}
