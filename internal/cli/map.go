package cli

import (
	"fmt"

	"github.com/jengzang/trafficcams/internal/mapview"
	"github.com/spf13/cobra"
)

func newMapCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Export camera markers as GeoJSON",
		Long: `Export one marker per camera with a valid position. Each marker
carries the camera name, region, a fresh image link and the detail route.`,
		Example: `  trafficcams map --output cameras.geojson`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			layer := a.svc.Markers()
			if output == "" {
				if root.yamlOutput {
					return root.printStructured(cmd.OutOrStdout(), layer)
				}
				return mapview.EncodeFeatureCollection(cmd.OutOrStdout(), layer.Markers)
			}

			if err := mapview.WriteFeatureCollection(output, layer.Markers); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d markers to %s\n", len(layer.Markers.Features), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "GeoJSON file to write (default: stdout)")
	return cmd
}
