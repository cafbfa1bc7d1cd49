package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/emberdb/ember/kv/config"
	"github.com/emberdb/ember/kv/journal"
	"github.com/ngaut/log"
)

var (
	configPath  = flag.String("config", "", "config file path")
	journalPath = flag.String("file", "", "serialized journal stream to dump")
)

func main() {
	flag.Parse()
	conf := loadConfig()
	log.SetLevelByString(conf.LogLevel)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	if *journalPath == "" {
		log.Fatal("no journal file given, use -file")
	}
	f, err := os.Open(*journalPath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	r := journal.NewReader(f)
	count := 0
	for {
		entry, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read entry %d: %v", count, err)
		}
		fmt.Println(entry)
		count++
		if entry.Opcode == journal.OpFin {
			break
		}
	}
	log.Infof("dumped %d entries", count)
}

func loadConfig() *config.Config {
	conf := config.DefaultConf
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &conf); err != nil {
			log.Fatal(err)
		}
	}
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}
	return &conf
}
