package main

// export organisations from the mongodb store as JSON lines

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [outfile]\n", os.Args[0])
		flag.PrintDefaults()
	}
	var uri = flag.String("database", "mongodb://localhost:27017", "mongodb connection uri")
	var dbName = flag.String("db", "charitysearch", "database name")
	var source = flag.String("source", "", "limit to organisations from one source")
	var activeOnly = flag.Bool("active", false, "only active organisations")
	flag.Parse()

	out := os.Stdout
	if flag.NArg() > 0 {
		f, err := os.Create(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*uri))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: connecting to mongodb: %s\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	filter := bson.M{}
	if *source != "" {
		filter["source"] = *source
	}
	if *activeOnly {
		filter["active"] = true
	}

	coll := client.Database(*dbName).Collection("organisation")
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	defer cursor.Close(ctx)

	enc := json.NewEncoder(out)
	cnt := 0
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(1)
		}
		if err := enc.Encode(doc); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(1)
		}
		cnt++
	}
	if err := cursor.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "dumped %d organisations\n", cnt)
}
