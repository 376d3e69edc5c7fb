package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/config"
)

// gentoken prints an ID token for a uid, for calling the functions by hand.
func main() {
	ctx := context.Background()
	uidPtr := flag.String("uid", "", "User UID for token generation")
	apiKeyPtr := flag.String("apikey", "", "Firebase API key for Identity Toolkit REST API")
	flag.Parse()

	if *uidPtr == "" {
		log.Fatalf("Please provide a user UID using the -uid flag")
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	apiKey := *apiKeyPtr
	if apiKey == "" {
		apiKey = cfg.FirebaseAPIKey
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, cfg.ClientOptions()...)
	if err != nil {
		log.Fatalf("error initializing app: %v", err)
	}
	toolkit := auth.NewToolkit(cfg.IdentityToolkitURL, apiKey, nil)
	provider, err := auth.NewFirebase(ctx, app, toolkit)
	if err != nil {
		log.Fatalf("error getting Auth client: %v", err)
	}

	customToken, err := provider.CustomToken(ctx, *uidPtr)
	if err != nil {
		log.Fatalf("error creating custom token: %v", err)
	}
	creds, err := toolkit.SignInWithCustomToken(ctx, customToken)
	if err != nil {
		log.Fatalf("error exchanging custom token: %v", err)
	}

	fmt.Println(creds.IDToken)
}
