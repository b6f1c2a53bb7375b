package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/GillesGroulard/familisapp/internal/slideshow"
	"github.com/GillesGroulard/familisapp/internal/store"
)

func init() {
	itemCmd := &cobra.Command{
		Use:   "item",
		Short: "Manage shared photos and videos",
	}

	addCmd := &cobra.Command{
		Use:   "add <family-id> <media-url>",
		Short: "Share an item with a family",
		Args:  cobra.ExactArgs(2),
		RunE:  runItemAdd,
	}
	addCmd.Flags().String("kind", string(slideshow.MediaImage), "image or video")
	addCmd.Flags().String("caption", "", "Caption")
	addCmd.Flags().String("user-id", "kioskctl", "Author user id")
	addCmd.Flags().String("username", "", "Author display name")
	addCmd.Flags().String("avatar-url", "", "Author avatar URL")

	listCmd := &cobra.Command{
		Use:   "list <family-id>",
		Short: "List a family's items, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runItemList,
	}
	listCmd.Flags().String("viewer", "", "Show this viewer's slideshow reactions")

	itemCmd.AddCommand(addCmd, listCmd, &cobra.Command{
		Use:     "rm <item-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE:    runItemRemove,
	})
	rootCmd.AddCommand(itemCmd)
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	caption, _ := cmd.Flags().GetString("caption")
	userID, _ := cmd.Flags().GetString("user-id")
	username, _ := cmd.Flags().GetString("username")
	avatarURL, _ := cmd.Flags().GetString("avatar-url")

	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	it, err := s.CreateItem(cmd.Context(), store.NewItem{
		FamilyID:  args[0],
		UserID:    userID,
		Username:  username,
		AvatarURL: avatarURL,
		MediaURL:  args[1],
		Kind:      slideshow.MediaKind(kind),
		Caption:   caption,
	})
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), it, func(w io.Writer) {
		fmt.Fprintf(w, "shared %s %s\n", it.Kind, it.ID)
	})
}

func runItemList(cmd *cobra.Command, args []string) error {
	viewer, _ := cmd.Flags().GetString("viewer")

	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	items, err := s.ListItems(cmd.Context(), args[0], viewer)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), items, func(w io.Writer) {
		printItems(w, items, time.Now())
	})
}

func runItemRemove(cmd *cobra.Command, args []string) error {
	s, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	if err := s.DeleteItem(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func printItems(w io.Writer, items []slideshow.Item, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tBY\tSHARED\tFLAGS\tCAPTION")
	for _, it := range items {
		flags := ""
		if it.Favorite {
			flags = "fav"
		}
		if it.Reaction != "" {
			if flags != "" {
				flags += ","
			}
			flags += string(it.Reaction)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Kind, it.AuthorName,
			humanize.RelTime(it.CreatedAt, now, "ago", "from now"),
			flags, it.Caption)
	}
	tw.Flush()
	fmt.Fprintf(w, "%s items\n", humanize.Comma(int64(len(items))))
}
