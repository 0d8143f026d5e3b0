package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"propertyapi/internal/asset"
	"propertyapi/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Delete stored images no property references",
	Long: `Run one orphaned-image sweep and exit.

Every object under properties/ in the blob store that no record references and that is
older than RECONCILE_GRACE is deleted.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo(context.Background())

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	assets, err := asset.NewManager(store, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	res, err := reconcile.NewSweeper(repo, assets, cfg.Reconcile.Grace, logger).RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d referenced=%d orphaned=%d removed=%d failed=%d\n",
		res.Scanned, res.Referenced, res.Orphaned, res.Removed, res.Failed)
	return nil
}
