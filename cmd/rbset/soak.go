package main

import (
	"context"
	"fmt"
	randv2 "math/rand/v2"
	"slices"
	"sync"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/rbset/lib/infra"
	"github.com/benz9527/rbset/lib/tree"
	"github.com/benz9527/rbset/xlog"
)

type soakRunner struct {
	cfg    SoakConfig
	logger xlog.XLogger
	opts   []tree.RBSetOption[int]
}

func newSoakRunner(cfg *Config, logger xlog.XLogger, metrics *metricsExporter) (*soakRunner, error) {
	if err := cfg.Soak.validate(); err != nil {
		return nil, err
	}
	r := &soakRunner{
		cfg:    cfg.Soak,
		logger: logger,
	}
	if r.cfg.Seed == 0 {
		r.cfg.Seed = randv2.Uint64()
	}
	if metrics.enabled() {
		r.opts = append(r.opts, tree.WithRBSetStats[int]("soak"))
	}
	return r, nil
}

func (r *soakRunner) Run(ctx context.Context) error {
	pool, err := antsv2.NewPool(r.cfg.Workers, antsv2.WithLogger(xlog.NewAntsXLogger(r.logger)))
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "new soak pool")
	}
	defer pool.Release()

	r.logger.Info("soak started",
		zap.Int("workers", r.cfg.Workers),
		zap.Int("trials", r.cfg.Trials),
		zap.Int("size", r.cfg.Size),
		zap.Uint64("seed", r.cfg.Seed),
	)
	var (
		wg    sync.WaitGroup
		lock  sync.Mutex
		merr  error
		start = time.Now()
	)
	appendErr := func(err error) {
		lock.Lock()
		defer lock.Unlock()
		merr = multierr.Append(merr, err)
	}
	for i := 0; i < r.cfg.Trials; i++ {
		id := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					appendErr(infra.NewErrorStack(fmt.Sprintf("trial %d panic: %v", id, p)))
				}
			}()
			if err := r.trial(ctx, id); err != nil {
				appendErr(err)
			}
		}); err != nil {
			wg.Done()
			appendErr(infra.WrapErrorStackWithMessage(err, fmt.Sprintf("submit trial %d", id)))
		}
	}
	wg.Wait()

	if merr != nil {
		return infra.WrapErrorStackWithMessage(merr, fmt.Sprintf("soak failed, %d errors", len(multierr.Errors(merr))))
	}
	r.logger.Info("soak finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// trial fills a set in random order, mixes random inserts and removes, then
// drains it by RemoveMin. The set is compared against a map model all along.
func (r *soakRunner) trial(ctx context.Context, id int) error {
	rng := randv2.New(randv2.NewPCG(r.cfg.Seed, uint64(id)))
	set := tree.NewRBSet[int](r.opts...)
	model := make(map[int]struct{}, r.cfg.Size)
	mutations := 0
	check := func(stage string, force bool) error {
		if !force {
			mutations++
			if r.cfg.ValidateEvery == 0 || mutations%r.cfg.ValidateEvery != 0 {
				return nil
			}
		}
		if err := set.Validate(); err != nil {
			return infra.WrapErrorStackWithMessage(err, fmt.Sprintf("trial %d %s after %d mutations", id, stage, mutations))
		}
		if set.Len() != int64(len(model)) {
			return infra.NewErrorStack(fmt.Sprintf("trial %d %s len %d, expected %d", id, stage, set.Len(), len(model)))
		}
		return nil
	}

	keys := lo.Range(r.cfg.Size)
	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	for _, k := range keys {
		set.Insert(k)
		model[k] = struct{}{}
		if err := check("fill", false); err != nil {
			return err
		}
	}
	if err := check("fill", true); err != nil {
		return err
	}

	for i := 0; i < r.cfg.Size; i++ {
		if i&0x3ff == 0 && ctx.Err() != nil {
			return infra.WrapErrorStack(ctx.Err())
		}
		k := rng.IntN(r.cfg.Size << 1)
		_, present := model[k]
		if rng.IntN(2) == 0 {
			res := set.Insert(k)
			if present != (res == tree.DuplicateRejected) {
				return infra.NewErrorStack(fmt.Sprintf("trial %d insert %d returns %s, present %v", id, k, res, present))
			}
			model[k] = struct{}{}
		} else {
			if removed := set.Remove(k); removed != present {
				return infra.NewErrorStack(fmt.Sprintf("trial %d remove %d returns %v, present %v", id, k, removed, present))
			}
			delete(model, k)
		}
		if err := check("mix", false); err != nil {
			return err
		}
	}
	if err := check("mix", true); err != nil {
		return err
	}

	expected := lo.Keys(model)
	slices.Sort(expected)
	if !slices.Equal(expected, slices.Collect(set.All())) {
		return infra.NewErrorStack(fmt.Sprintf("trial %d traversal differs from the model", id))
	}
	for _, k := range expected {
		x, err := set.RemoveMin()
		if err != nil {
			return infra.WrapErrorStackWithMessage(err, fmt.Sprintf("trial %d drain", id))
		}
		if x != k {
			return infra.NewErrorStack(fmt.Sprintf("trial %d drain %d, expected %d", id, x, k))
		}
		delete(model, k)
		if err := check("drain", false); err != nil {
			return err
		}
	}
	if _, err := set.RemoveMin(); err == nil {
		return infra.NewErrorStack(fmt.Sprintf("trial %d not empty after drain", id))
	}
	r.logger.Debug("trial finished", zap.Int("trial", id), zap.Int("mutations", mutations))
	return nil
}
