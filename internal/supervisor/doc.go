// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package supervisor runs shelfrank's long-lived services under a suture v4
supervisor tree.

The tree has three layers, each restarted independently:

	shelfrank
	├── data-layer
	│   └── cache-sweeper (when the catalog cache is enabled)
	├── messaging-layer
	│   └── catalog-events:<topic> (one consumer per catalog topic)
	└── api-layer
	    └── http-server

Supervisor events (service start, failure, backoff) are logged through
sutureslog. The service wrappers live in the services subpackage.
*/
package supervisor
