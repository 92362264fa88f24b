package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavouritesCmd(root *rootOptions) *cobra.Command {
	favouritesCmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"favs"},
		Short:   "Manage favourite cameras",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List favourite cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadedApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			cams := a.svc.Favourites()
			if root.structured() {
				return root.printStructured(cmd.OutOrStdout(), cams)
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tREGION")
			fmt.Fprintln(w, "--\t----\t------")
			for _, cam := range cams {
				fmt.Fprintf(w, "%s\t%s\t%s\n", cam.ID, cam.Name, orDash(cam.Region))
			}
			return w.Flush()
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <id|name>",
		Short: "Add or remove a favourite",
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
			isFav, err := a.svc.ToggleFavourite(cam.ID)
			if err != nil {
				return err
			}

			if root.structured() {
				return root.printStructured(cmd.OutOrStdout(), map[string]interface{}{"id": cam.ID, "favourite": isFav})
			}
			if isFav {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to favourites\n", cam.Name, cam.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s) from favourites\n", cam.Name, cam.ID)
			}
			return nil
		},
	}

	favouritesCmd.AddCommand(listCmd, toggleCmd)
	return favouritesCmd
}
