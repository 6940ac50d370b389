package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/logger"
)

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object URI",
		Short: "Inspect and manage repository objects",
		Example: `  erpl-adt object /sap/bc/adt/oo/classes/zcl_demo
  erpl-adt object read /sap/bc/adt/oo/classes/zcl_demo --json
  erpl-adt object lock /sap/bc/adt/programs/programs/ztest --session-file .adt.session
  erpl-adt object unlock /sap/bc/adt/programs/programs/ztest --handle H1 --session-file .adt.session`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObjectRead(cmd, args[0])
		},
	}

	read := &cobra.Command{
		Use:   "read URI",
		Short: "Read object metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObjectRead(cmd, args[0])
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a new object in a package",
		RunE:  runObjectCreate,
	}
	create.Flags().String("type", "", "ADT object type, e.g. CLAS/OC")
	create.Flags().String("name", "", "Object name")
	create.Flags().String("package", "", "Target package")
	create.Flags().String("description", "", "Short description")
	create.Flags().String("transport", "", "Transport request number")
	_ = create.MarkFlagRequired("type")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("package")

	del := &cobra.Command{
		Use:   "delete URI",
		Short: "Delete an object (locks automatically without --handle)",
		Args:  cobra.ExactArgs(1),
		RunE:  runObjectDelete,
	}
	del.Flags().String("handle", "", "Existing lock handle")
	del.Flags().String("transport", "", "Transport request number")

	lock := &cobra.Command{
		Use:   "lock URI",
		Short: "Acquire a modify lock and print the handle",
		Args:  cobra.ExactArgs(1),
		RunE:  runObjectLock,
	}

	unlock := &cobra.Command{
		Use:   "unlock URI",
		Short: "Release a lock acquired by 'object lock'",
		Args:  cobra.ExactArgs(1),
		RunE:  runObjectUnlock,
	}
	unlock.Flags().String("handle", "", "Lock handle printed by 'object lock'")
	_ = unlock.MarkFlagRequired("handle")

	cmd.AddCommand(read, create, del, lock, unlock)
	return cmd
}

func runObjectRead(cmd *cobra.Command, rawURI string) error {
	uri, err := types.NewObjectUri(rawURI)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	info, err := adtClient.ReadObject(cmd.Context(), uri)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(info)
	}
	renderDetail([][2]string{
		{"Name", info.Name},
		{"Type", info.Type},
		{"Description", info.Description},
		{"Package", info.Package},
		{"Version", info.Version},
		{"Responsible", info.Responsible},
		{"Changed", info.ChangedAt + " by " + info.ChangedBy},
	})
	return nil
}

func runObjectCreate(cmd *cobra.Command, _ []string) error {
	objectType, err := types.NewObjectType(mustFlag(cmd, "type"))
	if err != nil {
		return err
	}
	pkg, err := types.NewPackageName(mustFlag(cmd, "package"))
	if err != nil {
		return err
	}
	name := mustFlag(cmd, "name")

	adtClient, err := newClient()
	if err != nil {
		return err
	}
	err = adtClient.CreateObject(cmd.Context(), objectType, name, pkg,
		mustFlag(cmd, "description"), types.TransportId(mustFlag(cmd, "transport")))
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"status": "created", "name": name, "type": objectType.String()})
	}
	fmt.Println(styled(okStyle, "Created ") + objectType.String() + " " + name)
	return nil
}

func runObjectDelete(cmd *cobra.Command, args []string) error {
	uri, err := types.NewObjectUri(args[0])
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	handle := mustFlag(cmd, "handle")
	transport := types.TransportId(mustFlag(cmd, "transport"))
	if handle != "" {
		err = adtClient.DeleteObject(cmd.Context(), uri, types.LockHandle(handle), transport)
	} else {
		err = adtClient.DeleteObjectAutoLock(cmd.Context(), uri, transport)
	}
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"status": "deleted", "uri": uri.String()})
	}
	fmt.Println(styled(okStyle, "Deleted ") + uri.String())
	return nil
}

// runObjectLock locks the object and, with --session-file, saves the
// stateful session so a later 'object unlock' can release the same lock.
func runObjectLock(cmd *cobra.Command, args []string) error {
	uri, err := types.NewObjectUri(args[0])
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	sess := adtClient.Session()
	sess.SetStateful(true)
	info, err := adtClient.Lock(cmd.Context(), uri)
	if err != nil {
		sess.SetStateful(false)
		return err
	}
	if flagSessionFile != "" {
		if err := sess.Save(flagSessionFile); err != nil {
			return err
		}
		logger.Debugf("session saved to %s", flagSessionFile)
	}
	if flagJSON {
		return printJSON(info)
	}
	renderDetail([][2]string{
		{"Lock handle", info.Handle},
		{"Transport", info.Transport},
		{"Owner", info.TransportOwner},
	})
	if flagSessionFile == "" {
		fmt.Fprintln(os.Stderr, styled(warnStyle,
			"No --session-file given: the lock dies with this process."))
	}
	return nil
}

func runObjectUnlock(cmd *cobra.Command, args []string) error {
	uri, err := types.NewObjectUri(args[0])
	if err != nil {
		return err
	}
	handle, err := types.NewLockHandle(mustFlag(cmd, "handle"))
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	if err := adtClient.Unlock(cmd.Context(), uri, handle); err != nil {
		return err
	}
	adtClient.Session().SetStateful(false)
	if flagSessionFile != "" {
		if err := os.Remove(flagSessionFile); err != nil && !os.IsNotExist(err) {
			return aerr.Wrap(aerr.KindInternal, "UnlockObject", "removing session file", err)
		}
	}
	if flagJSON {
		return printJSON(map[string]any{"status": "unlocked", "uri": uri.String()})
	}
	fmt.Println(styled(okStyle, "Unlocked ") + uri.String())
	return nil
}

// mustFlag reads a string flag that cobra has already validated.
func mustFlag(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}
