// Package consent defines the data exchanged with the consent backend: the
// per-service Entry rows, the assembled KlaroConfig snapshot, the Choices
// posted to the simulation endpoint and the analytics Report.
package consent
