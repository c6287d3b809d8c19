// Package testapp is the web application that the contract tests run against. It is made of
// several small applications, one per scenario, each of which can be started as a harness
// routine in its own process. Every instance gets fresh state: its own router, config,
// session store and database.
package testapp
