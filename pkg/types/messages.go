package types

// Client -> Server
// Register:
//   participant: { name, scores: { TOP, JUNGLE, MID, ADC, SUPPORT: 0..10 },
//                  main_role?, sub_role?, wins?, losses? }
//
// Update:
//   name: string            // current name; participant.name may differ (rename)
//   participant: Participant
//
// Remove:
//   name: string
//
// Assign:
//   role: "TOP" | "JUNGLE" | "MID" | "ADC" | "SUPPORT"
//   side: "RED" | "BLUE"
//   name: string            // "" clears the field
//
// RecordMatch:
//   winner: "RED" | "BLUE"

// Server -> Client
// StateSnapshot:
//   version: number
//   state:
//     participants: Participant[]            // sorted by name
//     board: { slots: { role, red, blue }[] }
//     report:
//       lanes: { role, red, blue, red_score, blue_score, gap, complete,
//                tier: "NONE" | "LOW" | "HIGH" }[]
//       red_power, blue_power, power_diff: number
//       recordable: boolean
//       duplicates: string[]
//     candidates: { [role]: { RED: string[], BLUE: string[] } }
//     standings: { name, matches, wins, losses, win_rate }[]
//
// Error:
//   error: string
