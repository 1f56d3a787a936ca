// Package modules defines pluggable modules and how they are discovered.
//
// A Module is started by the orchestrator with a Config (its port, the
// shared secrets and the log options) and the Dependencies bundle, and
// returns a StopFunc. Modules that also implement Configurable contribute
// an entry to the broker configuration before any module starts.
//
// FileSet discovers modules from a YAML file:
//
//	modules:
//	  - name: scoring
//	    executable: ./scoring/bin/scoring
//	    args: ["--port", "{{ .Port }}", "--mhub", "{{ .BrokerURL }}"]
//	    env:
//	      MONGO_URI: "{{ .DatabaseURI }}"
//	    route: /scoring
//	    database: scoring
//	    broker:
//	      publishes: [score]
//
// Each declaration becomes a ProcessModule whose args and env are
// text/template strings rendered against TemplateData.
package modules
