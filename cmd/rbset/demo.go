package main

import (
	"context"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/rbset/lib/infra"
	"github.com/benz9527/rbset/lib/tree"
	"github.com/benz9527/rbset/xlog"
)

type demoRunner struct {
	cfg    DemoConfig
	logger xlog.XLogger
	opts   []tree.RBSetOption[int]
}

func newDemoRunner(cfg *Config, logger xlog.XLogger, metrics *metricsExporter) *demoRunner {
	r := &demoRunner{
		cfg:    cfg.Demo,
		logger: logger,
		opts:   make([]tree.RBSetOption[int], 0, 2),
	}
	if cfg.Demo.Desc {
		r.opts = append(r.opts, tree.WithRBSetDesc[int]())
	}
	if metrics.enabled() {
		r.opts = append(r.opts, tree.WithRBSetStats[int]("demo"))
	}
	return r
}

func (r *demoRunner) Run(ctx context.Context) error {
	_, err := r.run(ctx)
	return err
}

func (r *demoRunner) dump(set tree.RBSet[int]) {
	for _, path := range tree.LeafPaths(set) {
		r.logger.Info("leaf path", zap.String("path", path))
	}
	r.logger.Info("black depths", zap.Strings("depths", lo.Map(tree.BlackDepths(set), func(d tree.BlackDepth[int], _ int) string {
		return d.String()
	})))
}

func (r *demoRunner) run(ctx context.Context) (tree.RBSet[int], error) {
	set := tree.NewRBSet[int](r.opts...)
	values := slices.Clone(r.cfg.Values)
	if r.cfg.Shuffle {
		values = lo.Shuffle(values)
	}

	for _, v := range values {
		if set.Insert(v) == tree.DuplicateRejected {
			r.logger.Warn("duplicate key rejected", zap.Int("key", v))
		}
	}
	r.logger.Info("keys inserted",
		zap.Ints("order", values),
		zap.Int64("len", set.Len()),
		zap.Int("height", set.Height()),
	)
	r.dump(set)
	r.logger.Info("inorder", zap.String("keys", tree.InorderString(set)))
	if err := set.Validate(); err != nil {
		return set, infra.WrapErrorStackWithMessage(err, "validate after inserts")
	}

	for _, v := range r.cfg.Deletes {
		if err := ctx.Err(); err != nil {
			return set, infra.WrapErrorStack(err)
		}
		found := set.Remove(v)
		r.logger.Info("key deleted",
			zap.Int("key", v),
			zap.Bool("found", found),
			zap.String("keys", tree.InorderString(set)),
		)
		if err := set.Validate(); err != nil {
			r.dump(set)
			return set, infra.WrapErrorStackWithMessage(err, "validate after deleting "+strconv.Itoa(v))
		}
	}
	r.logger.Info("demo finished", zap.Int64("len", set.Len()))
	return set, nil
}
