package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/trafficcams/internal/models"
	"github.com/jengzang/trafficcams/internal/service"
	"github.com/jengzang/trafficcams/internal/snapshot"
	"github.com/spf13/cobra"
)

type filterOptions struct {
	query      string
	regions    []string
	favourites bool
	near       string
	radius     float64
}

func (f *filterOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Match camera name or region (case-insensitive)")
	cmd.Flags().StringSliceVar(&f.regions, "region", nil, "Only these regions (repeatable)")
	cmd.Flags().BoolVar(&f.favourites, "favourites", false, "Only favourite cameras")
	cmd.Flags().StringVar(&f.near, "near", "", `Sort by distance from "lat,lon" or "home"`)
	cmd.Flags().Float64Var(&f.radius, "radius", 0, "With --near, only cameras within this many miles")
}

// apply pushes the flags into the gallery view
func (f *filterOptions) apply(cmd *cobra.Command, a *app) error {
	a.svc.SetQuery(f.query)
	a.svc.SetRegions(f.regions)
	a.svc.SetFavouritesOnly(f.favourites)

	if f.near == "" {
		if f.radius != 0 {
			return errors.New("--radius needs --near")
		}
		return nil
	}

	loc, err := parseNear(f.near, a)
	if err != nil {
		return err
	}
	if _, err := a.svc.EnableProximity(cmd.Context(), service.StaticLocator{Location: loc}); err != nil {
		return err
	}
	if f.radius != 0 {
		r := f.radius
		if _, err := a.svc.SetRadius(&r); err != nil {
			return err
		}
	}
	return nil
}

// parseNear accepts "lat,lon" or "home" (the configured home location)
func parseNear(value string, a *app) (models.Location, error) {
	if strings.EqualFold(value, "home") {
		if !a.cfg.HasHome() {
			return models.Location{}, errors.New("--near home needs home_lat and home_lon in the config")
		}
		return models.Location{Latitude: a.cfg.HomeLat, Longitude: a.cfg.HomeLon}, nil
	}

	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return models.Location{}, fmt.Errorf("invalid --near %q, want lat,lon", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return models.Location{Latitude: lat, Longitude: lon}, nil
}

func formatDistance(cam models.Camera) string {
	if cam.DistanceMi == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f mi", *cam.DistanceMi)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newCamerasCmd(root *rootOptions) *cobra.Command {
	camerasCmd := &cobra.Command{
		Use:   "cameras",
		Short: "List and inspect cameras",
		Long:  `List cameras with filters, show one camera, download snapshots or list regions.`,
	}
	camerasCmd.AddCommand(
		newCamerasListCmd(root),
		newCamerasShowCmd(root),
		newCamerasSnapshotCmd(root),
		newCamerasRegionsCmd(root),
	)
	return camerasCmd
}

func newCamerasListCmd(root *rootOptions) *cobra.Command {
	filters := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cameras matching the filters",
		Example: `  trafficcams cameras list --region "Belfast" -q bridge
  trafficcams cameras list --near 54.6,-5.9 --radius 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := filters.apply(cmd, a); err != nil {
				return err
			}
			list := a.svc.List()

			if root.structured() {
				return root.printStructured(cmd.OutOrStdout(), list)
			}

			favs := models.NewFavouriteSet(a.svc.FavouriteIDs()...)
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tREGION\tDISTANCE\tFAV")
			fmt.Fprintln(w, "--\t----\t------\t--------\t---")
			for _, cam := range list.Data {
				fav := ""
				if favs.Has(cam.ID) {
					fav = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", cam.ID, cam.Name, orDash(cam.Region), formatDistance(cam), fav)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d cameras\n", list.Count, list.Total)
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func newCamerasShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show one camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			cam, err := a.svc.FindCamera(args[0])
			if err != nil {
				return err
			}
			detail, err := a.svc.Detail(cam.ID)
			if err != nil {
				return err
			}

			if root.structured() {
				return root.printStructured(cmd.OutOrStdout(), detail)
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "ID:\t%s\n", detail.Camera.ID)
			fmt.Fprintf(w, "Name:\t%s\n", detail.Camera.Name)
			fmt.Fprintf(w, "Region:\t%s\n", orDash(detail.Camera.Region))
			fmt.Fprintf(w, "Position:\t%.6f, %.6f\n", detail.Camera.Latitude, detail.Camera.Longitude)
			fmt.Fprintf(w, "Favourite:\t%t\n", detail.Favourite)
			fmt.Fprintf(w, "Image:\t%s\n", detail.ImageURL)
			return w.Flush()
		},
	}
}

func newCamerasSnapshotCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot <id|name>",
		Short: "Download the current image of a camera",
		Long: `Download the current image to a file named after the camera and the
time of capture. If the download fails the direct image URL is printed.`,
		Example: `  trafficcams cameras snapshot 1042 --output ./snaps/`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			cam, err := a.svc.FindCamera(args[0])
			if err != nil {
				return err
			}

			snap, err := a.svc.Snapshot(cmd.Context(), cam.ID)
			var fe *snapshot.FetchError
			if errors.As(err, &fe) {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not download snapshot (%v).\nOpen the image directly: %s\n", fe.Err, fe.DirectURL)
				return nil
			}
			if err != nil {
				return err
			}

			path, err := snapshot.Save(snap, output)
			if err != nil {
				return err
			}

			if root.structured() {
				return root.printStructured(cmd.OutOrStdout(), map[string]interface{}{
					"camera": cam.ID,
					"path":   path,
					"bytes":  len(snap.Data),
					"at":     time.Now().UTC(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default: current directory)")
	return cmd
}

func newCamerasRegionsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List camera regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			regions := a.svc.Regions()
			if root.structured() {
				return root.printStructured(cmd.OutOrStdout(), regions)
			}
			for _, r := range regions {
				fmt.Fprintln(cmd.OutOrStdout(), r.Name)
			}
			return nil
		},
	}
}
