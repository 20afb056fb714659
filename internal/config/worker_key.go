package config

type WorkerKeyStruct struct {
	PersistRankingsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistRankingsQueue: "persist_rankings_queue",
}
