package scenario

import (
	"fmt"

	"github.com/JunkyDeveloper/flint-core/internal/ir"
)

// convertDocument validates a decoded document and builds the model.
func convertDocument(doc *document) (*Scenario, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("steps list is required and must be non-empty")
	}

	s := &Scenario{
		Name:        doc.Name,
		Description: doc.Description,
		Tags:        doc.Tags,
	}

	// cleanup becomes the first fixture so it shows up in the report.
	if doc.Cleanup != nil {
		region, err := convertRegion(doc.Cleanup)
		if err != nil {
			return nil, fmt.Errorf("cleanup: %w", err)
		}
		s.Steps = append(s.Steps, Step{
			Label:  "cleanup",
			Marker: Immediate(),
			Action: Clear{Region: region},
		})
	}

	for i := range doc.Steps {
		step, err := convertStep(&doc.Steps[i])
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		s.Steps = append(s.Steps, step)
	}

	return s, nil
}

func convertStep(d *stepDoc) (Step, error) {
	marker, err := convertMarker(d)
	if err != nil {
		return Step{}, err
	}

	action, err := convertAction(d)
	if err != nil {
		return Step{}, fmt.Errorf("%s: %w", d.Do, err)
	}
	if err := CheckRegionVolume(action); err != nil {
		return Step{}, fmt.Errorf("%s: %w", d.Do, err)
	}

	return Step{Label: d.Label, Marker: marker, Action: action}, nil
}

func convertMarker(d *stepDoc) (Marker, error) {
	switch {
	case d.At != nil && d.After != nil:
		return Marker{}, fmt.Errorf("at and after are mutually exclusive")
	case d.Immediate && (d.At != nil || d.After != nil):
		return Marker{}, fmt.Errorf("immediate cannot be combined with at or after")
	case d.Immediate:
		return Immediate(), nil
	case d.At != nil:
		if *d.At < 0 {
			return Marker{}, fmt.Errorf("at must be non-negative, got %d", *d.At)
		}
		return At(uint64(*d.At)), nil
	case d.After != nil:
		if *d.After < 0 {
			return Marker{}, fmt.Errorf("after must be non-negative, got %d", *d.After)
		}
		return After(uint64(*d.After)), nil
	}
	return At(0), nil
}

func convertAction(d *stepDoc) (Action, error) {
	switch d.Do {
	case ActionPlace:
		pos, err := requirePos(d.Pos)
		if err != nil {
			return nil, err
		}
		block, err := requireBlock("block", d.Block)
		if err != nil {
			return nil, err
		}
		return Place{Pos: pos, Block: block}, nil

	case ActionRemove:
		pos, err := requirePos(d.Pos)
		if err != nil {
			return nil, err
		}
		return Remove{Pos: pos}, nil

	case ActionFill:
		region, err := requireRegion(d.Region)
		if err != nil {
			return nil, err
		}
		block, err := requireBlock("block", d.Block)
		if err != nil {
			return nil, err
		}
		return Fill{Region: region, Block: block}, nil

	case ActionClear:
		region, err := requireRegion(d.Region)
		if err != nil {
			return nil, err
		}
		return Clear{Region: region}, nil

	case ActionSetSlot:
		slot, err := requireSlot(d.Slot)
		if err != nil {
			return nil, err
		}
		return SetSlot{Slot: slot, Item: convertItem(d.Item)}, nil

	case ActionSelectHotbar:
		if d.Hotbar == nil {
			return nil, fmt.Errorf("hotbar is required")
		}
		if *d.Hotbar < 1 || *d.Hotbar > 9 {
			return nil, fmt.Errorf("hotbar must be 1-9, got %d", *d.Hotbar)
		}
		return SelectHotbar{Index: uint8(*d.Hotbar)}, nil

	case ActionUseItemOn:
		pos, err := requirePos(d.Pos)
		if err != nil {
			return nil, err
		}
		if d.Face == "" {
			return nil, fmt.Errorf("face is required")
		}
		face, err := ir.ParseBlockFace(d.Face)
		if err != nil {
			return nil, err
		}
		return UseItemOn{Pos: pos, Face: face}, nil

	case ActionAssertBlock:
		pos, err := requirePos(d.Pos)
		if err != nil {
			return nil, err
		}
		block, err := requireBlock("is", d.Is)
		if err != nil {
			return nil, err
		}
		return AssertBlock{Pos: pos, Block: block}, nil

	case ActionAssertRegion:
		region, err := requireRegion(d.Region)
		if err != nil {
			return nil, err
		}
		block, err := requireBlock("is", d.Is)
		if err != nil {
			return nil, err
		}
		return AssertRegion{Region: region, Block: block}, nil

	case ActionAssertBlocks:
		if len(d.Checks) == 0 {
			return nil, fmt.Errorf("checks list is required and must be non-empty")
		}
		checks := make([]BlockCheck, len(d.Checks))
		for i, c := range d.Checks {
			pos, err := requirePos(c.Pos)
			if err != nil {
				return nil, fmt.Errorf("checks[%d]: %w", i, err)
			}
			block, err := requireBlock("is", c.Is)
			if err != nil {
				return nil, fmt.Errorf("checks[%d]: %w", i, err)
			}
			checks[i] = BlockCheck{Pos: pos, Block: block}
		}
		return AssertBlocks{Checks: checks}, nil

	case ActionAssertSlot:
		slot, err := requireSlot(d.Slot)
		if err != nil {
			return nil, err
		}
		return AssertSlot{Slot: slot, Item: convertItem(d.Item)}, nil

	case "":
		return nil, fmt.Errorf("do is required")
	}
	return nil, fmt.Errorf("unknown action %q", d.Do)
}

func requirePos(p []int32) (ir.BlockPos, error) {
	if p == nil {
		return ir.BlockPos{}, fmt.Errorf("pos is required")
	}
	return convertPos(p)
}

func convertPos(p []int32) (ir.BlockPos, error) {
	if len(p) != 3 {
		return ir.BlockPos{}, fmt.Errorf("position must have 3 components, got %d", len(p))
	}
	return ir.BlockPos{p[0], p[1], p[2]}, nil
}

func requireRegion(r *regionDoc) (ir.Region, error) {
	if r == nil {
		return ir.Region{}, fmt.Errorf("region is required")
	}
	return convertRegion(r)
}

// convertRegion keeps min and max as written; an inverted box is empty.
func convertRegion(r *regionDoc) (ir.Region, error) {
	lo, err := convertPos(r.Min)
	if err != nil {
		return ir.Region{}, fmt.Errorf("region min: %w", err)
	}
	hi, err := convertPos(r.Max)
	if err != nil {
		return ir.Region{}, fmt.Errorf("region max: %w", err)
	}
	return ir.Region{Min: lo, Max: hi}, nil
}

func requireBlock(field string, b *blockDoc) (ir.Block, error) {
	if b == nil || b.ID == "" {
		return ir.Block{}, fmt.Errorf("%s is required", field)
	}
	return ir.NewBlock(b.ID, b.Properties), nil
}

func requireSlot(text string) (ir.PlayerSlot, error) {
	if text == "" {
		return 0, fmt.Errorf("slot is required")
	}
	return ir.ParsePlayerSlot(text)
}

func convertItem(i *itemDoc) *ir.Item {
	if i == nil || i.ID == "" {
		return nil
	}
	item := ir.NewItem(i.ID, i.Count)
	return &item
}
