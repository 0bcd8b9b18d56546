// Package main mints copies of a music SFT class: a new title uploads
// the audio and cover art, pins the metadata document and creates the
// class on-chain; an existing title just mints more copies.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"near-sft-market/internal/near"
	"near-sft-market/internal/pinning"
	"near-sft-market/internal/sft"
	"near-sft-market/internal/wallet"
)

func main() {
	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("NEAR_RPC_ENDPOINT"), "NEAR RPC HTTP endpoint")
	contract := flag.String("contract", os.Getenv("SFT_CONTRACT"), "SFT marketplace contract account")
	credentialsFile := flag.String("credentials-file", os.Getenv("NEAR_CREDENTIALS_FILE"), "NEAR credentials JSON file")
	pinataAPIKey := flag.String("pinata-api-key", os.Getenv("PINATA_API_KEY"), "Pinata API key")
	pinataSecret := flag.String("pinata-secret", os.Getenv("PINATA_SECRET_KEY"), "Pinata secret key")
	title := flag.String("title", "", "Track title (determines the token class)")
	description := flag.String("description", "", "Track description")
	copies := flag.Uint64("copies", 0, "Number of copies to mint")
	price := flag.String("price", "", "Price per copy in NEAR, e.g. 0.1 (new classes only)")
	audioPath := flag.String("audio", "", "Path to the audio file (new classes only)")
	coverPath := flag.String("cover", "", "Path to the cover photo (new classes only)")
	flag.Parse()

	ctx := context.Background()

	// Validate flags
	if *rpcEndpoint == "" || *contract == "" || *credentialsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-endpoint, --contract and --credentials-file are required")
		os.Exit(1)
	}
	if *title == "" || *copies == 0 {
		fmt.Fprintln(os.Stderr, "Error: --title and a positive --copies are required")
		os.Exit(1)
	}

	req := &sft.MintRequest{
		Title:       *title,
		Description: *description,
		Copies:      *copies,
		Price:       *price,
	}

	var err error
	if *audioPath != "" {
		if req.Audio, err = os.ReadFile(*audioPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading audio file: %v\n", err)
			os.Exit(1)
		}
		req.AudioName = filepath.Base(*audioPath)
	}
	if *coverPath != "" {
		if req.Cover, err = os.ReadFile(*coverPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading cover photo: %v\n", err)
			os.Exit(1)
		}
		req.CoverName = filepath.Base(*coverPath)
	}

	rpc := near.NewHTTPClient(*rpcEndpoint)
	session := wallet.NewSession(wallet.Options{RPC: rpc, CredentialsPath: *credentialsFile})
	if err := session.SignIn(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error signing in: %v\n", err)
		os.Exit(1)
	}

	service := sft.NewService(sft.Options{
		RPC:      rpc,
		Signer:   session,
		Pinner:   pinning.NewClient(*pinataAPIKey, *pinataSecret),
		Contract: *contract,
	})

	result, err := service.Mint(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error minting: %v\n", err)
		os.Exit(1)
	}

	if result.NewClass {
		fmt.Printf("Created class %s with %d copies\n", result.TokenClassID, *copies)
		fmt.Printf("  - audio: %s\n", result.MediaURL)
		fmt.Printf("  - cover: %s\n", result.CoverURL)
	} else {
		fmt.Printf("Minted %d more copies of %s\n", *copies, result.TokenClassID)
	}
	fmt.Printf("  - tx: %s\n", result.TxHash)
}
