// Package main is the marketplace command line: browse classes, inspect
// inventories, manage sale approvals and buy copies.
//
// Usage:
//
//	market [flags] list
//	market [flags] inventory <account>
//	market [flags] balance <class>
//	market [flags] approve <class> <amount>
//	market [flags] revoke <class>
//	market [flags] sellers <class>
//	market [flags] buy <class> <seller>
//	market [flags] transfer <class> <receiver> <amount>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"near-sft-market/internal/indexer"
	"near-sft-market/internal/near"
	"near-sft-market/internal/sft"
	"near-sft-market/internal/storage/memory"
	"near-sft-market/internal/wallet"
)

func main() {
	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("NEAR_RPC_ENDPOINT"), "NEAR RPC HTTP endpoint")
	contract := flag.String("contract", os.Getenv("SFT_CONTRACT"), "SFT marketplace contract account")
	credentialsFile := flag.String("credentials-file", os.Getenv("NEAR_CREDENTIALS_FILE"), "NEAR credentials JSON file")
	flag.Parse()

	ctx := context.Background()

	if *rpcEndpoint == "" || *contract == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-endpoint and --contract are required")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a subcommand is required (list, inventory, balance, approve, revoke, sellers, buy, transfer)")
		os.Exit(1)
	}

	rpc := near.NewHTTPClient(*rpcEndpoint)
	session := wallet.NewSession(wallet.Options{RPC: rpc, CredentialsPath: *credentialsFile})

	sellers := memory.NewSellerStore()
	service := sft.NewService(sft.Options{
		RPC:      rpc,
		Signer:   session,
		Contract: *contract,
		Sellers:  sellers,
	})

	// Change subcommands need a signed-in session.
	signIn := func() {
		if *credentialsFile == "" {
			fmt.Fprintln(os.Stderr, "Error: --credentials-file is required for this subcommand")
			os.Exit(1)
		}
		if err := session.SignIn(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error signing in: %v\n", err)
			os.Exit(1)
		}
	}

	// syncSellers fills the local seller index from the owner set so
	// "sellers" and "buy" have candidates to check against the contract.
	syncSellers := func() {
		runner := indexer.New(indexer.Options{
			Chain:   service,
			Classes: memory.NewClassStore(),
			Sellers: sellers,
		})
		if err := runner.SyncOnce(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: seller discovery incomplete: %v\n", err)
		}
	}

	args := flag.Args()
	switch args[0] {
	case "list":
		classes, err := service.AllClasses(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing classes: %v\n", err)
			os.Exit(1)
		}
		for _, c := range classes {
			fmt.Printf("%s\t%q by %s\t%s yoctoNEAR/copy\n",
				c.TokenClassID, c.Metadata.Title, c.CreatorID, c.Metadata.PricePerCopy)
		}

	case "inventory":
		requireArgs(args, 2, "inventory <account>")
		inv, err := service.Inventory(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching inventory: %v\n", err)
			os.Exit(1)
		}
		ids := make([]string, 0, len(inv))
		for id := range inv {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%s\t%s copies\n", id, inv[id])
		}

	case "balance":
		requireArgs(args, 2, "balance <class>")
		signIn()
		balance, err := service.BalanceOf(ctx, session.AccountID(), args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching balance: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s copies\n", args[1], balance)

	case "approve":
		requireArgs(args, 3, "approve <class> <amount>")
		signIn()
		hash, err := service.Approve(ctx, args[1], args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error approving: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Approved %s copies of %s for sale\n  - tx: %s\n", args[2], args[1], hash)

	case "revoke":
		requireArgs(args, 2, "revoke <class>")
		signIn()
		hash, err := service.Revoke(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error revoking: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Revoked sale approval for %s\n  - tx: %s\n", args[1], hash)

	case "sellers":
		requireArgs(args, 2, "sellers <class>")
		syncSellers()
		approved := service.FindApprovedSellers(ctx, args[1], nil)
		if len(approved) == 0 {
			fmt.Println("No approved sellers")
			return
		}
		ids := make([]string, 0, len(approved))
		for id := range approved {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%s\t%s copies for sale\n", id, approved[id])
		}

	case "buy":
		requireArgs(args, 3, "buy <class> <seller>")
		signIn()
		hash, err := service.Buy(ctx, args[1], args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error buying: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Bought 1 copy of %s from %s\n  - tx: %s\n", args[1], args[2], hash)

	case "transfer":
		requireArgs(args, 4, "transfer <class> <receiver> <amount>")
		signIn()
		hash, err := service.Transfer(ctx, args[1], args[2], args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error transferring: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Transferred %s copies of %s to %s\n  - tx: %s\n", args[3], args[1], args[2], hash)

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand %q\n", args[0])
		os.Exit(1)
	}
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "Usage: market %s\n", usage)
		os.Exit(1)
	}
}
