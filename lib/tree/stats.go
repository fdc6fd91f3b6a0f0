package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBSetStatsName = "rbset"
)

type fixupCase uint8

const (
	insertRedUncle fixupCase = iota
	insertInnerChild
	insertOuterChild
	removeRedSibling
	removeBlackNephews
	removeNearNephew
	removeFarNephew
	_fixupCaseMax
)

var (
	fixupCaseAttrs = [_fixupCaseMax]metric.AddOption{
		insertRedUncle:     fixupAttr("insert", "red-uncle"),
		insertInnerChild:   fixupAttr("insert", "inner-child"),
		insertOuterChild:   fixupAttr("insert", "outer-child"),
		removeRedSibling:   fixupAttr("remove", "red-sibling"),
		removeBlackNephews: fixupAttr("remove", "black-nephews"),
		removeNearNephew:   fixupAttr("remove", "near-nephew"),
		removeFarNephew:    fixupAttr("remove", "far-nephew"),
	}
	insertResultAttrs = [2]metric.AddOption{
		Inserted:          metric.WithAttributeSet(attribute.NewSet(attribute.String("result", "inserted"))),
		DuplicateRejected: metric.WithAttributeSet(attribute.NewSet(attribute.String("result", "duplicate"))),
	}
	removedAttr   = metric.WithAttributeSet(attribute.NewSet(attribute.String("result", "removed")))
	absentAttr    = metric.WithAttributeSet(attribute.NewSet(attribute.String("result", "absent")))
	rotationAttrs = [2]metric.AddOption{
		Left:  metric.WithAttributeSet(attribute.NewSet(attribute.String("dir", "left"))),
		Right: metric.WithAttributeSet(attribute.NewSet(attribute.String("dir", "right"))),
	}
)

func fixupAttr(phase, name string) metric.AddOption {
	return metric.WithAttributeSet(attribute.NewSet(
		attribute.String("phase", phase),
		attribute.String("case", name),
	))
}

// All methods are nil-safe, a set without stats pays a nil check only.
type rbSetStats struct {
	length      metric.Int64UpDownCounter
	insertCount metric.Int64Counter
	removeCount metric.Int64Counter
	rotateCount metric.Int64Counter
	fixupCount  metric.Int64Counter
}

func (stats *rbSetStats) RecordLen(delta int64) {
	if stats == nil {
		return
	}
	stats.length.Add(context.Background(), delta)
}

func (stats *rbSetStats) RecordInsert(res InsertResult) {
	if stats == nil {
		return
	}
	stats.insertCount.Add(context.Background(), 1, insertResultAttrs[res])
}

func (stats *rbSetStats) RecordRemove(removed bool) {
	if stats == nil {
		return
	}
	if removed {
		stats.removeCount.Add(context.Background(), 1, removedAttr)
		return
	}
	stats.removeCount.Add(context.Background(), 1, absentAttr)
}

func (stats *rbSetStats) IncreaseRotationCount(dir RBDirection) {
	if stats == nil {
		return
	}
	stats.rotateCount.Add(context.Background(), 1, rotationAttrs[dir])
}

func (stats *rbSetStats) IncreaseFixupCaseCount(c fixupCase) {
	if stats == nil {
		return
	}
	stats.fixupCount.Add(context.Background(), 1, fixupCaseAttrs[c])
}

func newRBSetStats(name string) *rbSetStats {
	meterName := RBSetStatsName
	if len(name) > 0 {
		meterName = fmt.Sprintf("%s/%s", RBSetStatsName, name)
	}
	meter := otel.Meter(meterName)
	return &rbSetStats{
		length: lo.Must[metric.Int64UpDownCounter](meter.
			Int64UpDownCounter(
				"rbset.len",
				metric.WithDescription("The number of keys in the set."),
			),
		),
		insertCount: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"rbset.insert.count",
				metric.WithDescription("The number of insertions, by result."),
			),
		),
		removeCount: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"rbset.remove.count",
				metric.WithDescription("The number of removals, by result."),
			),
		),
		rotateCount: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"rbset.rotation.count",
				metric.WithDescription("The number of rotations, by direction."),
			),
		),
		fixupCount: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"rbset.fixup.case.count",
				metric.WithDescription("The number of rebalance cases taken, by phase and case."),
			),
		),
	}
}
