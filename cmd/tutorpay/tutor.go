package main

import (
	"fmt"

	"github.com/Freeeeeet/tutorpay/internal/repository"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/spf13/cobra"
)

var tutorCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Manage tutors",
}

var tutorCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a tutor account not linked to Telegram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		users := service.NewUserService(repository.NewUserRepository(rt.pool), rt.logger)
		tutor, err := users.CreateTutor(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), tutor.ID)
		return nil
	},
}

func init() {
	tutorCmd.AddCommand(tutorCreateCmd)
}
