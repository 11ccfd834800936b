// Package socks routes page and image traffic through a SOCKS5 proxy. The
// proxy is either an address the user supplies (a local Tor daemon, an SSH
// tunnel) or an embedded Tor daemon started with tornago.
package socks
